package models

import (
	"testing"
	"time"
)

// -----------------------------------------------------------------------------

func TestReadingFieldsOmitsUnset(t *testing.T) {
	latency := 4.5
	ping := MReading{
		SensorID:   1,
		SensorType: SensorTypePing,
		Status:     "ok",
		LatencyMs:  &latency,
	}

	fields := ping.Fields()
	if fields["status"] != "ok" || fields["latency_ms"] != 4.5 {
		t.Fatalf("fields = %v", fields)
	}
	if _, found := fields["speed"]; found {
		t.Fatalf("empty ethernet fields leaked into a ping reading")
	}

	eth := MReading{
		SensorID:   2,
		SensorType: SensorTypeEthernet,
		Status:     "link_up",
		Speed:      "1000Mbps",
		RxBitrate:  "10.5",
		TxBitrate:  "2.1",
	}
	fields = eth.Fields()
	if fields["speed"] != "1000Mbps" || fields["rx_bitrate"] != "10.5" || fields["tx_bitrate"] != "2.1" {
		t.Fatalf("fields = %v", fields)
	}
	if _, found := fields["latency_ms"]; found {
		t.Fatalf("nil latency leaked into an ethernet reading")
	}
}

// -----------------------------------------------------------------------------

func TestWindowDuration(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"1h", time.Hour},
		{"12h", 12 * time.Hour},
		{"24h", 24 * time.Hour},
		{"7d", 7 * 24 * time.Hour},
		{"30d", 30 * 24 * time.Hour},
	}
	for _, tt := range tests {
		got, err := WindowDuration(tt.in)
		if err != nil {
			t.Fatalf("WindowDuration(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("WindowDuration(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if _, err := WindowDuration("2h"); err == nil {
		t.Fatalf("WindowDuration accepted an unknown range")
	}
}

// -----------------------------------------------------------------------------

func TestSessionValidity(t *testing.T) {
	var nilSession *MSession
	if nilSession.Valid() {
		t.Fatalf("nil session reported valid")
	}
	if (&MSession{}).Valid() {
		t.Fatalf("empty session reported valid")
	}
	if !(&MSession{AccessToken: "tok"}).Valid() {
		t.Fatalf("non-expiring session reported invalid")
	}
	if (&MSession{AccessToken: "tok", ExpiresAt: time.Now().Add(-time.Second)}).Valid() {
		t.Fatalf("expired session reported valid")
	}
	if !(&MSession{AccessToken: "tok", ExpiresAt: time.Now().Add(time.Hour)}).Valid() {
		t.Fatalf("live session reported invalid")
	}
}
