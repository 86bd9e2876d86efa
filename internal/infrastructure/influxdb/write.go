package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WritePropertyChange records a numeric property change applied by a directive.
//
// The write is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - deviceID: Endpoint identifier (e.g., "light_456")
//   - property: The property that changed (e.g., "brightness", "targetSetpoint")
//   - value: The value just applied
//
// Example:
//
//	client.WritePropertyChange("light_456", "brightness", 75)
//	client.WritePropertyChange("thermostat_789", "targetSetpoint", 21.5)
func (c *Client) WritePropertyChange(deviceID string, property string, value float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"property_changes",
		map[string]string{
			"device_id": deviceID,
			"property":  property,
		},
		map[string]interface{}{
			"value": value,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteDirectiveCount records a processed directive for throughput tracking.
//
// Parameters:
//   - namespace: Capability namespace of the directive (e.g., "Alexa.PowerController")
//   - name: Directive name (e.g., "TurnOn")
//   - accepted: Whether the directive validated and applied
func (c *Client) WriteDirectiveCount(namespace, name string, accepted bool) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"directives",
		map[string]string{
			"namespace": namespace,
			"name":      name,
		},
		map[string]interface{}{
			"accepted": accepted,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}
