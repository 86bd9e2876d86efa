// Package history persists an append-only log of applied state changes
// to SQLite. It is an audit trail, not a source of truth: the device
// registry is rebuilt from seed data on every start and never reads
// from here.
//
// The store implements the actuation notifier contract, so it plugs
// straight into the directive fan-out alongside the MQTT and InfluxDB
// sinks. Writes are best effort from the caller's point of view; a
// failed insert is reported to the caller for logging and nothing is
// retried.
package history
