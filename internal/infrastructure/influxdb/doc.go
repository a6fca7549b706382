// Package influxdb writes net FSM telemetry to InfluxDB v2.
//
// It wraps the official influxdb-client-go v2 library. Two measurements
// are produced:
//   - netfsm_transition: one point per state change (written by the status
//     reporter's InfluxDB sink through WritePointWithTime)
//   - netfsm_cycle: one point per finished connection cycle
//
// # Offline start
//
// New does not ping the server. The device usually has no network when the
// client is created, and the non-blocking write API buffers points until
// the first flush after Wi-Fi is up. HealthCheck pings on demand.
//
// # Usage
//
//	client, err := influxdb.New(cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteCycleResult("gw-01", cycleID, "mqtt_connected", "none", elapsed, 1, 1)
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// Write errors are delivered asynchronously through SetOnError.
package influxdb
