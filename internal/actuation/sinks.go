package actuation

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/greyfell/voicebridge/internal/infrastructure/influxdb"
	"github.com/greyfell/voicebridge/internal/infrastructure/mqtt"
	"github.com/greyfell/voicebridge/internal/smarthome"
)

// statePayload is the JSON body published to state topics.
type statePayload struct {
	Value     any    `json:"value"`
	Timestamp string `json:"timestamp"`
}

// encodeStatePayload builds the wire body for one state change.
func encodeStatePayload(value any, now time.Time) ([]byte, error) {
	return json.Marshal(statePayload{
		Value:     value,
		Timestamp: now.UTC().Format(time.RFC3339),
	})
}

// MQTTSink publishes applied changes as retained messages on
// per-property state topics, so late subscribers see current values.
type MQTTSink struct {
	client *mqtt.Client
	topics mqtt.Topics
}

// NewMQTTSink wraps a connected MQTT client.
func NewMQTTSink(client *mqtt.Client) *MQTTSink {
	return &MQTTSink{client: client}
}

// Notify publishes the change to voicebridge/state/{device}/{field}.
func (s *MQTTSink) Notify(deviceID, field string, value any) error {
	payload, err := encodeStatePayload(value, time.Now())
	if err != nil {
		return fmt.Errorf("encoding state payload: %w", err)
	}
	return s.client.PublishRetained(s.topics.DeviceState(deviceID, field), payload)
}

// InfluxSink records numeric property changes as telemetry points.
// Non-numeric changes (power states, modes, colour triples) are skipped;
// the history log captures those.
type InfluxSink struct {
	client *influxdb.Client
}

// NewInfluxSink wraps a connected InfluxDB client.
func NewInfluxSink(client *influxdb.Client) *InfluxSink {
	return &InfluxSink{client: client}
}

// Notify writes the change if its value is numeric.
func (s *InfluxSink) Notify(deviceID, field string, value any) error {
	if v, ok := numericValue(value); ok {
		s.client.WritePropertyChange(deviceID, field, v)
	}
	return nil
}

// RecordDirective counts one processed directive, accepted or rejected,
// for throughput tracking.
func (s *InfluxSink) RecordDirective(namespace, name string, accepted bool) {
	s.client.WriteDirectiveCount(namespace, name, accepted)
}

func numericValue(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case smarthome.TemperatureValue:
		return v.Value, true
	}
	return 0, false
}
