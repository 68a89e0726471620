package models

import "time"

// Sensor types carried in the sensor_type field.
const (
	SensorTypePing     = "ping"
	SensorTypeEthernet = "ethernet"
)

// -----------------------------------------------------------------------------
// MUpdateEvent represents one normalized live update for a single sensor,
// flattened from whatever shape the stream delivered it in (single, batch
// item or envelope). Transient: forwarded to listeners, never persisted.
// -----------------------------------------------------------------------------

type MUpdateEvent struct {
	SensorID   int
	SensorType string
	Timestamp  time.Time
	// Fields holds the live values exactly as received (status, latency_ms,
	// speed, rx_bitrate, tx_bitrate, ...). Consumers merge these shallowly:
	// a field absent from the map leaves the prior value untouched.
	Fields map[string]interface{}
}

// -----------------------------------------------------------------------------

// Field returns a named field value, or nil when absent.
func (e *MUpdateEvent) Field(name string) interface{} {
	if e.Fields == nil {
		return nil
	}
	return e.Fields[name]
}

// -----------------------------------------------------------------------------

// TimestampKey returns the deduplication key used by history series:
// millisecond precision is what the backend emits, so two readings for the
// same instant collapse to one key.
func (e *MUpdateEvent) TimestampKey() int64 {
	return e.Timestamp.UnixMilli()
}
