// Package status turns state machine transitions into observable output:
// structured log lines, a numeric status code, a device indicator colour,
// and records for non-blocking sinks (SQLite history, InfluxDB).
//
// The Reporter is registered as the Machine's observer and runs inside
// Step, so nothing here may block or call back into the Machine.
package status
