package mqtt

import "fmt"

// Topic prefixes for the Voicebridge MQTT namespace.
//
// State topics use the flat scheme: voicebridge/state/{device_id}/{property}
// so consumers can subscribe per device (voicebridge/state/light_456/#) or
// per property across the fleet (voicebridge/state/+/powerState).
const (
	// TopicPrefix is the base for all Voicebridge topics.
	TopicPrefix = "voicebridge"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "voicebridge/system"
)

// Topics provides builders for Voicebridge MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
type Topics struct{}

// DeviceState returns the topic for a single property change on a device.
//
// Example: voicebridge/state/coffee_maker_123/brewStrength
func (Topics) DeviceState(deviceID, property string) string {
	return fmt.Sprintf("%s/state/%s/%s", TopicPrefix, deviceID, property)
}

// SystemStatus returns the topic for the bridge's own online/offline status.
//
// Example: voicebridge/system/status
func (Topics) SystemStatus() string {
	return TopicPrefixSystem + "/status"
}
