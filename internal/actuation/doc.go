// Package actuation contains the sinks that receive applied state
// changes from the directive pipeline: an MQTT publisher for retained
// per-property state topics and an InfluxDB writer for numeric
// telemetry. The SQLite history log implements the same contract in
// its own package.
//
// Sinks are best effort. The directive has already been applied by the
// time a sink runs; a sink failure is surfaced to the dispatcher for
// logging and never affects the response.
package actuation
