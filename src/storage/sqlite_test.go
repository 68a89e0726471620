package storage

import (
	"path/filepath"
	"testing"
	"time"

	"monitor-observer/src/logger"
	"monitor-observer/src/models"
)

// -----------------------------------------------------------------------------

func newTestDB(t *testing.T) *SQLiteDB {
	t.Helper()
	cfg := &models.MConfig{
		Storage: models.MStorageConfig{
			DBType: "sqlite",
			DBPath: filepath.Join(t.TempDir(), "test.db"),
		},
	}
	db, err := NewSQLiteDB(cfg, logger.NewLogger("SQLiteDB"))
	if err != nil {
		t.Fatalf("NewSQLiteDB: %v", err)
	}
	if err := db.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// -----------------------------------------------------------------------------

func TestDeviceUpsert(t *testing.T) {
	db := newTestDB(t)

	dev := models.MDevice{ID: "d1", ClientName: "gw", IPAddress: "10.0.0.1", Status: "active"}
	if err := db.SaveDevice(dev); err != nil {
		t.Fatalf("SaveDevice: %v", err)
	}

	dev.Status = "offline"
	if err := db.SaveDevice(dev); err != nil {
		t.Fatalf("SaveDevice upsert: %v", err)
	}

	devices, err := db.ListDevices()
	if err != nil {
		t.Fatalf("ListDevices: %v", err)
	}
	if len(devices) != 1 {
		t.Fatalf("devices = %d, want 1 (upsert, not duplicate)", len(devices))
	}
	if devices[0].Status != "offline" {
		t.Fatalf("status = %q, want updated value", devices[0].Status)
	}
}

// -----------------------------------------------------------------------------

func TestSensorRoundTrip(t *testing.T) {
	db := newTestDB(t)

	id, err := db.SaveSensor(models.MSensor{
		DeviceID:   "d1",
		Name:       "gw ping",
		SensorType: models.SensorTypePing,
		Config:     map[string]interface{}{"interval_sec": 5.0},
	})
	if err != nil {
		t.Fatalf("SaveSensor: %v", err)
	}
	if id == 0 {
		t.Fatalf("SaveSensor returned id 0")
	}

	sensors, err := db.ListSensors()
	if err != nil {
		t.Fatalf("ListSensors: %v", err)
	}
	if len(sensors) != 1 {
		t.Fatalf("sensors = %d", len(sensors))
	}
	s := sensors[0]
	if s.ID != id || s.Name != "gw ping" || s.SensorType != models.SensorTypePing {
		t.Fatalf("sensor = %+v", s)
	}
	if s.Config["interval_sec"] != 5.0 {
		t.Fatalf("config = %v", s.Config)
	}

	// Saving with an explicit id updates in place.
	s.Name = "renamed"
	if _, err := db.SaveSensor(s); err != nil {
		t.Fatalf("SaveSensor update: %v", err)
	}
	sensors, _ = db.ListSensors()
	if len(sensors) != 1 || sensors[0].Name != "renamed" {
		t.Fatalf("sensors after update = %+v", sensors)
	}

	if err := db.DeleteSensor(id); err != nil {
		t.Fatalf("DeleteSensor: %v", err)
	}
	sensors, _ = db.ListSensors()
	if len(sensors) != 0 {
		t.Fatalf("sensors after delete = %d", len(sensors))
	}
}

// -----------------------------------------------------------------------------

func TestPingReadingsRange(t *testing.T) {
	db := newTestDB(t)
	base := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		latency := float64(i)
		err := db.InsertReading(models.MReading{
			SensorID:   1,
			SensorType: models.SensorTypePing,
			Timestamp:  base.Add(time.Duration(i) * time.Minute),
			Status:     "ok",
			LatencyMs:  &latency,
		})
		if err != nil {
			t.Fatalf("InsertReading: %v", err)
		}
	}

	// Range covering the middle three readings.
	readings, err := db.ReadingsRange(1, models.SensorTypePing, base.Add(time.Minute), base.Add(3*time.Minute))
	if err != nil {
		t.Fatalf("ReadingsRange: %v", err)
	}
	if len(readings) != 3 {
		t.Fatalf("readings = %d, want 3", len(readings))
	}
	for i, r := range readings {
		if r.LatencyMs == nil || *r.LatencyMs != float64(i+1) {
			t.Fatalf("reading %d = %+v, want ascending order", i, r)
		}
		if r.SensorType != models.SensorTypePing {
			t.Fatalf("sensor type = %q", r.SensorType)
		}
	}

	// Other sensors never leak in.
	readings, err = db.ReadingsRange(2, models.SensorTypePing, base, base.Add(time.Hour))
	if err != nil {
		t.Fatalf("ReadingsRange: %v", err)
	}
	if len(readings) != 0 {
		t.Fatalf("readings for unknown sensor = %d", len(readings))
	}
}

// -----------------------------------------------------------------------------

func TestEthernetReadingsRange(t *testing.T) {
	db := newTestDB(t)
	ts := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)

	err := db.InsertReading(models.MReading{
		SensorID:   7,
		SensorType: models.SensorTypeEthernet,
		Timestamp:  ts,
		Status:     "link_up",
		Speed:      "1000Mbps",
		RxBitrate:  "512.3",
		TxBitrate:  "128.9",
	})
	if err != nil {
		t.Fatalf("InsertReading: %v", err)
	}

	readings, err := db.ReadingsRange(7, models.SensorTypeEthernet, ts.Add(-time.Minute), ts.Add(time.Minute))
	if err != nil {
		t.Fatalf("ReadingsRange: %v", err)
	}
	if len(readings) != 1 {
		t.Fatalf("readings = %d", len(readings))
	}
	r := readings[0]
	if r.Status != "link_up" || r.Speed != "1000Mbps" || r.RxBitrate != "512.3" || r.TxBitrate != "128.9" {
		t.Fatalf("reading = %+v", r)
	}
	if !r.Timestamp.Equal(ts) {
		t.Fatalf("timestamp = %v, want %v", r.Timestamp, ts)
	}
}

// -----------------------------------------------------------------------------

func TestInsertReadingUnknownType(t *testing.T) {
	db := newTestDB(t)
	err := db.InsertReading(models.MReading{SensorID: 1, SensorType: "thermal"})
	if err == nil {
		t.Fatalf("InsertReading accepted an unknown sensor type")
	}
}
