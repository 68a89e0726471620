package models

import "time"

// MDevice represents a registered network device.
type MDevice struct {
	ID         string `json:"id"`
	ClientName string `json:"client_name"`
	IPAddress  string `json:"ip_address"`
	MACAddress string `json:"mac_address"`
	Node       string `json:"node"`
	Status     string `json:"status"`
}

// MSensor represents a monitored sensor attached to a device.
type MSensor struct {
	ID         int                    `json:"id"`
	DeviceID   string                 `json:"device_id"`
	Name       string                 `json:"name"`
	SensorType string                 `json:"sensor_type"`
	Config     map[string]interface{} `json:"config"`
}

// -----------------------------------------------------------------------------
// MReading is one stored measurement for a sensor. Ping sensors fill Status
// and LatencyMs; ethernet sensors fill Status, Speed and the bitrates.
// -----------------------------------------------------------------------------

type MReading struct {
	SensorID   int       `json:"sensor_id"`
	SensorType string    `json:"sensor_type"`
	Timestamp  time.Time `json:"timestamp"`
	Status     string    `json:"status"`
	LatencyMs  *float64  `json:"latency_ms,omitempty"`
	Speed      string    `json:"speed,omitempty"`
	RxBitrate  string    `json:"rx_bitrate,omitempty"`
	TxBitrate  string    `json:"tx_bitrate,omitempty"`
}

// -----------------------------------------------------------------------------

// Fields flattens the reading into the live-update field map broadcast on
// the stream. Only populated values are included so consumers can merge.
func (r *MReading) Fields() map[string]interface{} {
	fields := map[string]interface{}{"status": r.Status}
	if r.LatencyMs != nil {
		fields["latency_ms"] = *r.LatencyMs
	}
	if r.Speed != "" {
		fields["speed"] = r.Speed
	}
	if r.RxBitrate != "" {
		fields["rx_bitrate"] = r.RxBitrate
	}
	if r.TxBitrate != "" {
		fields["tx_bitrate"] = r.TxBitrate
	}
	return fields
}
