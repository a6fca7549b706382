package status

import (
	"time"
)

// PointWriter is implemented by *influxdb.Client.
type PointWriter interface {
	WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time)
}

// InfluxSink writes one netfsm_transition point per Event. The underlying
// write API is non-blocking and batched.
type InfluxSink struct {
	writer      PointWriter
	deviceID    string
	measurement string
	now         func() time.Time
}

// NewInfluxSink creates a sink tagging points with deviceID.
func NewInfluxSink(w PointWriter, deviceID, measurement string) *InfluxSink {
	return &InfluxSink{
		writer:      w,
		deviceID:    deviceID,
		measurement: measurement,
		now:         time.Now,
	}
}

// Record implements Sink.
func (s *InfluxSink) Record(ev Event) {
	tags := map[string]string{
		"device_id": s.deviceID,
		"from":      ev.From.String(),
		"to":        ev.To.String(),
		"phase":     ev.Phase.String(),
		"reason":    ev.Reason.String(),
	}
	fields := map[string]interface{}{
		"cycle_id":    ev.CycleID,
		"attempt":     ev.Attempt,
		"backoff_ms":  ev.Backoff.Milliseconds(),
		"elapsed_ms":  ev.Elapsed.Milliseconds(),
		"status_code": int(ev.Code),
	}
	s.writer.WritePointWithTime(s.measurement, tags, fields, s.now())
}
