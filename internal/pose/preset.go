package pose

import (
	"time"

	"github.com/handsense/handsense-core/internal/hand"
)

// Preset is a named grip: a target joint vector with the limits it
// should be applied under.
type Preset struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Joints      hand.JointVector `json:"joints"`
	Speed       hand.JointVector `json:"speed"`
	Force       hand.JointVector `json:"force"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// Normalize clamps all vectors onto the device ranges.
func (p *Preset) Normalize() {
	p.Joints = p.Joints.ClampAngles()
	p.Speed = p.Speed.ClampSpeeds()
	p.Force = p.Force.ClampForces()
}

// Validate checks the preset is storable.
func (p *Preset) Validate() error {
	if p.Name == "" {
		return ErrInvalidName
	}
	return nil
}
