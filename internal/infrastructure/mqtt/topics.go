package mqtt

import "fmt"

// Topic prefixes for the handsense broker surface.
//
// Telemetry uses handsense/state/{channel}, commands use
// handsense/command/{channel}, and system status lives under
// handsense/system.
const (
	// TopicPrefix is the base for all handsense topics.
	TopicPrefix = "handsense"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "handsense/system"
)

// Topics provides builders for handsense MQTT topics. Using the helpers
// keeps topic naming consistent across publishers and subscribers.
type Topics struct{}

// SystemStatus returns the online/offline status topic. Retained; also
// the LWT target.
func (Topics) SystemStatus() string {
	return TopicPrefixSystem + "/status"
}

// JointState returns the topic for device-reported joint angles.
//
// Example: handsense/state/joints
func (Topics) JointState() string {
	return fmt.Sprintf("%s/state/joints", TopicPrefix)
}

// ShapeState returns the topic for the current shape estimate.
func (Topics) ShapeState() string {
	return fmt.Sprintf("%s/state/shape", TopicPrefix)
}

// ContactState returns the topic for derived contact points.
func (Topics) ContactState() string {
	return fmt.Sprintf("%s/state/contacts", TopicPrefix)
}

// TactileState returns the topic for one sensor region's summary.
//
// Example: handsense/state/tactile/palm
func (Topics) TactileState(region string) string {
	return fmt.Sprintf("%s/state/tactile/%s", TopicPrefix, region)
}

// JointCommand returns the topic remote producers publish target joint
// vectors to.
func (Topics) JointCommand() string {
	return fmt.Sprintf("%s/command/joints", TopicPrefix)
}

// SpeedCommand returns the topic for speed limit commands.
func (Topics) SpeedCommand() string {
	return fmt.Sprintf("%s/command/speed", TopicPrefix)
}

// ForceCommand returns the topic for force limit commands.
func (Topics) ForceCommand() string {
	return fmt.Sprintf("%s/command/force", TopicPrefix)
}
