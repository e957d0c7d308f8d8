package hand

import "fmt"

// Holding register addresses, from the device manual.
const (
	// RegJointCommand is the base of the six target angle registers.
	RegJointCommand uint16 = 1486
	// RegForce is the base of the six force limit registers.
	RegForce uint16 = 1498
	// RegSpeed is the base of the six joint speed registers.
	RegSpeed uint16 = 1522
	// RegActualAngles is the base of the six measured angle registers.
	RegActualAngles uint16 = 1546
)

// JointCount is the number of independently driven joints.
const JointCount = 6

// Joint indices within a JointVector.
const (
	JointPinky = iota
	JointRing
	JointMiddle
	JointIndex
	JointThumbBend
	JointThumbRotation
)

// Value ranges accepted by the device.
const (
	AngleMin = 0
	AngleMax = 1000
	SpeedMin = 0
	SpeedMax = 1000
	ForceMin = 0
	ForceMax = 3000
)

var jointNames = [JointCount]string{
	"pinky", "ring", "middle", "index", "thumb_bend", "thumb_rotation",
}

// JointName returns the manual's name for a joint index, or "unknown".
func JointName(i int) string {
	if i < 0 || i >= JointCount {
		return "unknown"
	}
	return jointNames[i]
}

// JointVector holds one value per joint in device order.
type JointVector [JointCount]int

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampAngles returns a copy with every joint angle clamped to [0, 1000].
func (v JointVector) ClampAngles() JointVector {
	for i := range v {
		v[i] = clamp(v[i], AngleMin, AngleMax)
	}
	return v
}

// ClampSpeeds returns a copy with every value clamped to [0, 1000].
func (v JointVector) ClampSpeeds() JointVector {
	for i := range v {
		v[i] = clamp(v[i], SpeedMin, SpeedMax)
	}
	return v
}

// ClampForces returns a copy with every value clamped to [0, 3000].
func (v JointVector) ClampForces() JointVector {
	for i := range v {
		v[i] = clamp(v[i], ForceMin, ForceMax)
	}
	return v
}

// Registers encodes the vector for a multi-register write.
func (v JointVector) Registers() []uint16 {
	regs := make([]uint16, JointCount)
	for i, val := range v {
		regs[i] = uint16(clamp(val, 0, 0xFFFF))
	}
	return regs
}

// JointVectorFromRegisters decodes a six-register read.
func JointVectorFromRegisters(regs []uint16) (JointVector, error) {
	var v JointVector
	if len(regs) != JointCount {
		return v, fmt.Errorf("expected %d joint registers, got %d", JointCount, len(regs))
	}
	for i, r := range regs {
		v[i] = int(r)
	}
	return v, nil
}

// String renders the vector as "pinky=1000 ring=1000 ...".
func (v JointVector) String() string {
	s := ""
	for i, val := range v {
		if i > 0 {
			s += " "
		}
		s += fmt.Sprintf("%s=%d", jointNames[i], val)
	}
	return s
}
