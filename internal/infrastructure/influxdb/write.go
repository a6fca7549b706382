package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	MeasurementTransition = "netfsm_transition"
	MeasurementCycle      = "netfsm_cycle"
)

// WriteCycleResult records the outcome of one connection cycle.
//
// The write is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - deviceID: Device identifier (tag)
//   - cycleID: Cycle UUID (field, high cardinality)
//   - state: Terminal state name (tag)
//   - reason: Fatal reason name or "none" (tag)
//   - elapsed: Cycle duration
//   - wifiAttempts, mqttAttempts: BeginConnect calls per phase
func (c *Client) WriteCycleResult(deviceID, cycleID, state, reason string, elapsed time.Duration, wifiAttempts, mqttAttempts int) {
	if !c.IsOpen() {
		return
	}

	point := write.NewPoint(
		MeasurementCycle,
		map[string]string{
			"device_id": deviceID,
			"state":     state,
			"reason":    reason,
		},
		map[string]interface{}{
			"cycle_id":      cycleID,
			"elapsed_ms":    elapsed.Milliseconds(),
			"wifi_attempts": wifiAttempts,
			"mqtt_attempts": mqttAttempts,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePointWithTime writes a custom point with a specific timestamp.
//
// Parameters:
//   - measurement: The measurement name
//   - tags: Key-value pairs for indexing
//   - fields: Key-value pairs for the data
//   - timestamp: The exact time for this data point
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsOpen() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, timestamp)
	c.writeAPI.WritePoint(point)
}
