package realtime

import (
	"testing"
	"time"

	"monitor-observer/src/models"
)

// -----------------------------------------------------------------------------

func TestNormalizeFlatUpdate(t *testing.T) {
	payload := `{"sensor_id": 7, "sensor_type": "ping", "status": "ok", "latency_ms": 4.2, "timestamp": "2026-08-29T10:15:00Z"}`

	events, control, err := Normalize([]byte(payload))
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if control != "" {
		t.Fatalf("control = %q for data payload", control)
	}
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}

	e := events[0]
	if e.SensorID != 7 || e.SensorType != models.SensorTypePing {
		t.Fatalf("event = %+v", e)
	}
	want := time.Date(2026, 8, 29, 10, 15, 0, 0, time.UTC)
	if !e.Timestamp.Equal(want) {
		t.Fatalf("timestamp = %v, want %v", e.Timestamp, want)
	}
	if e.Fields["status"] != "ok" || e.Fields["latency_ms"] != 4.2 {
		t.Fatalf("fields = %v", e.Fields)
	}
	// Structural keys never leak into live state.
	for _, k := range []string{"sensor_id", "sensor_type", "timestamp", "type"} {
		if _, found := e.Fields[k]; found {
			t.Errorf("structural key %q leaked into fields", k)
		}
	}
}

// -----------------------------------------------------------------------------

func TestNormalizeBatchPreservesOrder(t *testing.T) {
	payload := `{"type": "sensor_batch", "items": [
		{"sensor_id": 3, "status": "ok"},
		{"sensor_id": 1, "status": "timeout"},
		{"sensor_id": 2, "status": "ok"}
	]}`

	events, control, err := Normalize([]byte(payload))
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if control != "" {
		t.Fatalf("control = %q", control)
	}

	var ids []int
	for _, e := range events {
		ids = append(ids, e.SensorID)
	}
	if len(ids) != 3 || ids[0] != 3 || ids[1] != 1 || ids[2] != 2 {
		t.Fatalf("ids = %v, want array order [3 1 2]", ids)
	}
}

// -----------------------------------------------------------------------------

func TestNormalizeBatchSkipsBadItems(t *testing.T) {
	payload := `{"type": "sensor_batch", "items": [
		{"sensor_id": 1, "status": "ok"},
		{"status": "no id"},
		"not an object",
		{"sensor_id": 2, "status": "ok", "timestamp": "garbage"},
		{"sensor_id": 3, "status": "ok"}
	]}`

	events, _, err := Normalize([]byte(payload))
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2 (bad items skipped)", len(events))
	}
	if events[0].SensorID != 1 || events[1].SensorID != 3 {
		t.Fatalf("surviving ids = %d, %d", events[0].SensorID, events[1].SensorID)
	}
}

// -----------------------------------------------------------------------------

func TestNormalizeEnvelope(t *testing.T) {
	payload := `{"type": "sensor_update", "data": {"sensor_id": 9, "sensor_type": "ethernet", "status": "link_up", "rx_bitrate": 512.0}}`

	events, _, err := Normalize([]byte(payload))
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(events) != 1 || events[0].SensorID != 9 {
		t.Fatalf("events = %+v", events)
	}
	if events[0].Fields["rx_bitrate"] != 512.0 {
		t.Fatalf("fields = %v", events[0].Fields)
	}
}

// -----------------------------------------------------------------------------

func TestNormalizeControlFrames(t *testing.T) {
	for _, msgType := range []string{models.MsgWelcome, models.MsgReady, models.MsgPong, models.MsgPing} {
		events, control, err := Normalize([]byte(`{"type": "` + msgType + `"}`))
		if err != nil {
			t.Fatalf("Normalize(%s): %v", msgType, err)
		}
		if control != msgType {
			t.Errorf("control = %q, want %q", control, msgType)
		}
		if len(events) != 0 {
			t.Errorf("control frame %s yielded %d events", msgType, len(events))
		}
	}
}

// -----------------------------------------------------------------------------

func TestNormalizeUnparseableJSON(t *testing.T) {
	_, _, err := Normalize([]byte(`{broken`))
	if err == nil {
		t.Fatalf("expected error for unparseable payload")
	}
}

// -----------------------------------------------------------------------------

func TestNormalizeUnknownShapeYieldsNothing(t *testing.T) {
	events, control, err := Normalize([]byte(`{"type": "server_gossip", "detail": "x"}`))
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if control != "" || len(events) != 0 {
		t.Fatalf("events = %v, control = %q; want nothing", events, control)
	}
}

// -----------------------------------------------------------------------------

func TestNormalizeMissingTimestampDefaultsToNow(t *testing.T) {
	before := time.Now().UTC()
	events, _, err := Normalize([]byte(`{"sensor_id": 4, "status": "ok"}`))
	after := time.Now().UTC()

	if err != nil || len(events) != 1 {
		t.Fatalf("events = %v, err = %v", events, err)
	}
	ts := events[0].Timestamp
	if ts.Before(before) || ts.After(after) {
		t.Fatalf("timestamp %v outside [%v, %v]", ts, before, after)
	}
}
