package views

import (
	"testing"
	"time"

	"monitor-observer/src/models"
)

// -----------------------------------------------------------------------------

func TestInitPendingOnlyFillsMissing(t *testing.T) {
	l := NewLiveStatusMap()

	l.Apply(models.MUpdateEvent{
		SensorID:  2,
		Timestamp: time.Now(),
		Fields:    map[string]interface{}{"status": "ok"},
	})
	l.InitPending([]int{1, 2, 3})

	if got := l.Get(1)["status"]; got != StatusPending {
		t.Errorf("sensor 1 status = %v, want pending", got)
	}
	if got := l.Get(2)["status"]; got != "ok" {
		t.Errorf("sensor 2 status = %v, existing entry must survive InitPending", got)
	}
	if got := l.Get(3)["status"]; got != StatusPending {
		t.Errorf("sensor 3 status = %v, want pending", got)
	}
}

// -----------------------------------------------------------------------------

// An update merges shallowly: untouched keys survive, named keys overwrite.
func TestApplyMergesShallowly(t *testing.T) {
	l := NewLiveStatusMap()
	ts1 := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	ts2 := ts1.Add(5 * time.Second)

	l.Apply(models.MUpdateEvent{
		SensorID:   7,
		SensorType: models.SensorTypePing,
		Timestamp:  ts1,
		Fields:     map[string]interface{}{"status": "ok", "latency_ms": 12.0},
	})
	l.Apply(models.MUpdateEvent{
		SensorID:  7,
		Timestamp: ts2,
		Fields:    map[string]interface{}{"status": "high_latency"},
	})

	entry := l.Get(7)
	if entry["status"] != "high_latency" {
		t.Errorf("status = %v", entry["status"])
	}
	if entry["latency_ms"] != 12.0 {
		t.Errorf("latency_ms = %v, earlier field must survive a partial update", entry["latency_ms"])
	}
	if entry["sensor_type"] != models.SensorTypePing {
		t.Errorf("sensor_type = %v, must survive updates that omit it", entry["sensor_type"])
	}
	if !entry["timestamp"].(time.Time).Equal(ts2) {
		t.Errorf("timestamp = %v, want %v", entry["timestamp"], ts2)
	}
}

// -----------------------------------------------------------------------------

// A batch touching one sensor leaves the others in their prior state.
func TestApplyLeavesOtherSensorsUntouched(t *testing.T) {
	l := NewLiveStatusMap()
	l.InitPending([]int{3, 7, 9})

	l.Apply(models.MUpdateEvent{
		SensorID:  7,
		Timestamp: time.Now(),
		Fields:    map[string]interface{}{"status": "ok"},
	})

	if got := l.Get(3)["status"]; got != StatusPending {
		t.Errorf("sensor 3 status = %v, want pending", got)
	}
	if got := l.Get(7)["status"]; got != "ok" {
		t.Errorf("sensor 7 status = %v, want ok", got)
	}
	if got := l.Get(9)["status"]; got != StatusPending {
		t.Errorf("sensor 9 status = %v, want pending", got)
	}
}

// -----------------------------------------------------------------------------

// Get and Snapshot hand out copies; mutating them must not leak back.
func TestGetAndSnapshotReturnCopies(t *testing.T) {
	l := NewLiveStatusMap()
	l.InitPending([]int{1})

	l.Get(1)["status"] = "tampered"
	if got := l.Get(1)["status"]; got != StatusPending {
		t.Errorf("status = %v, Get copy leaked back into the map", got)
	}

	snap := l.Snapshot()
	snap[1]["status"] = "tampered"
	if got := l.Get(1)["status"]; got != StatusPending {
		t.Errorf("status = %v, Snapshot copy leaked back into the map", got)
	}
}

// -----------------------------------------------------------------------------

func TestClear(t *testing.T) {
	l := NewLiveStatusMap()
	l.InitPending([]int{1, 2})
	l.Clear()

	if l.Len() != 0 {
		t.Errorf("Len = %d after Clear", l.Len())
	}
	if l.Get(1) != nil {
		t.Errorf("Get(1) = %v after Clear", l.Get(1))
	}
}
