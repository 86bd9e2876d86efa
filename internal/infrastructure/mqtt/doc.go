// Package mqtt provides MQTT client connectivity for Voicebridge.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// Voicebridge uses MQTT as its actuation sink: after every successful
// directive the new property value is published so that downstream
// consumers (device firmware bridges, dashboards, recorders) observe the
// change. The core never blocks on the broker; publish failures are
// advisory and swallowed by the caller.
//
//	Voice assistant cloud → Voicebridge core → MQTT broker → consumers
//
// # Security Considerations
//
//   - TLS is required for production deployments (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	topic := mqtt.Topics{}.DeviceState("light_456", "brightness")
//	client.Publish(topic, []byte(`{"value":75}`), 1, true)
package mqtt
