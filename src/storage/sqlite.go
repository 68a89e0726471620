package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"monitor-observer/src/logger"
	"monitor-observer/src/models"

	_ "modernc.org/sqlite"
)

// -----------------------------------------------------------------------------

type SQLiteDB struct {
	Config *models.MConfig
	DB     *sql.DB
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewSQLiteDB(cfg *models.MConfig, log *logger.Logger) (*SQLiteDB, error) {
	return &SQLiteDB{
		Config: cfg,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) Initialize() error {
	dsn := d.Config.Storage.DBPath

	// Open DB
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return err
	}

	if err := db.Ping(); err != nil {
		return err
	}

	d.DB = db

	// PRAGMA optimizations
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		d.Logger.Warning("Failed to set WAL mode: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL;"); err != nil {
		d.Logger.Warning("Failed to set synchronous mode: %v", err)
	}

	return d.createTables()
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) createTables() error {
	// SQLite types: INTEGER for int64, REAL for float64, TEXT for string
	queries := []string{
		`CREATE TABLE IF NOT EXISTS devices (
			id TEXT PRIMARY KEY,
			client_name TEXT,
			ip_address TEXT UNIQUE,
			mac_address TEXT,
			node TEXT,
			status TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS sensors (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			device_id TEXT,
			name TEXT,
			sensor_type TEXT,
			config TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS ping_results (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			sensor_id INTEGER,
			timestamp TEXT,
			status TEXT,
			latency_ms REAL
		)`,
		`CREATE TABLE IF NOT EXISTS ethernet_results (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			sensor_id INTEGER,
			timestamp TEXT,
			status TEXT,
			speed TEXT,
			rx_bitrate TEXT,
			tx_bitrate TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ping_sensor_ts ON ping_results (sensor_id, timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_eth_sensor_ts ON ethernet_results (sensor_id, timestamp)`,
	}

	for _, q := range queries {
		if _, err := d.DB.Exec(q); err != nil {
			return fmt.Errorf("failed to create tables: %w", err)
		}
	}

	d.Logger.Info("SQLiteDB initialized at %s", dsnForLog(d.Config.Storage.DBPath))
	return nil
}

func dsnForLog(dsn string) string {
	if dsn == "" {
		return "(memory)"
	}
	return dsn
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}

// -----------------------------------------------------------------------------
// Inventory
// -----------------------------------------------------------------------------

func (d *SQLiteDB) ListDevices() ([]models.MDevice, error) {
	rows, err := d.DB.Query(`SELECT id, client_name, ip_address, mac_address, node, status FROM devices`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var devices []models.MDevice
	for rows.Next() {
		var dev models.MDevice
		if err := rows.Scan(&dev.ID, &dev.ClientName, &dev.IPAddress, &dev.MACAddress, &dev.Node, &dev.Status); err != nil {
			return nil, err
		}
		devices = append(devices, dev)
	}
	return devices, rows.Err()
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) SaveDevice(dev models.MDevice) error {
	_, err := d.DB.Exec(`
		INSERT INTO devices (id, client_name, ip_address, mac_address, node, status)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			client_name = excluded.client_name,
			ip_address = excluded.ip_address,
			mac_address = excluded.mac_address,
			node = excluded.node,
			status = excluded.status`,
		dev.ID, dev.ClientName, dev.IPAddress, dev.MACAddress, dev.Node, dev.Status)
	return err
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) ListSensors() ([]models.MSensor, error) {
	rows, err := d.DB.Query(`SELECT id, device_id, name, sensor_type, config FROM sensors`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sensors []models.MSensor
	for rows.Next() {
		var s models.MSensor
		var cfg string
		if err := rows.Scan(&s.ID, &s.DeviceID, &s.Name, &s.SensorType, &cfg); err != nil {
			return nil, err
		}
		if cfg != "" {
			if err := json.Unmarshal([]byte(cfg), &s.Config); err != nil {
				d.Logger.Warning("sensor %d has invalid config json: %v", s.ID, err)
			}
		}
		sensors = append(sensors, s)
	}
	return sensors, rows.Err()
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) SaveSensor(s models.MSensor) (int, error) {
	cfg, err := json.Marshal(s.Config)
	if err != nil {
		return 0, err
	}

	if s.ID != 0 {
		_, err := d.DB.Exec(`
			INSERT INTO sensors (id, device_id, name, sensor_type, config)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				device_id = excluded.device_id,
				name = excluded.name,
				sensor_type = excluded.sensor_type,
				config = excluded.config`,
			s.ID, s.DeviceID, s.Name, s.SensorType, string(cfg))
		return s.ID, err
	}

	res, err := d.DB.Exec(`INSERT INTO sensors (device_id, name, sensor_type, config) VALUES (?, ?, ?, ?)`,
		s.DeviceID, s.Name, s.SensorType, string(cfg))
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	return int(id), err
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) DeleteSensor(id int) error {
	if _, err := d.DB.Exec(`DELETE FROM sensors WHERE id = ?`, id); err != nil {
		return err
	}
	if _, err := d.DB.Exec(`DELETE FROM ping_results WHERE sensor_id = ?`, id); err != nil {
		return err
	}
	_, err := d.DB.Exec(`DELETE FROM ethernet_results WHERE sensor_id = ?`, id)
	return err
}

// -----------------------------------------------------------------------------
// Readings
// -----------------------------------------------------------------------------

func (d *SQLiteDB) InsertReading(r models.MReading) error {
	ts := r.Timestamp.UTC().Format(time.RFC3339Nano)

	switch r.SensorType {
	case models.SensorTypePing:
		var latency interface{}
		if r.LatencyMs != nil {
			latency = *r.LatencyMs
		}
		_, err := d.DB.Exec(`INSERT INTO ping_results (sensor_id, timestamp, status, latency_ms) VALUES (?, ?, ?, ?)`,
			r.SensorID, ts, r.Status, latency)
		return err

	case models.SensorTypeEthernet:
		_, err := d.DB.Exec(`INSERT INTO ethernet_results (sensor_id, timestamp, status, speed, rx_bitrate, tx_bitrate) VALUES (?, ?, ?, ?, ?, ?)`,
			r.SensorID, ts, r.Status, r.Speed, r.RxBitrate, r.TxBitrate)
		return err

	default:
		return fmt.Errorf("unknown sensor type %q", r.SensorType)
	}
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) ReadingsRange(sensorID int, sensorType string, start, end time.Time) ([]models.MReading, error) {
	startStr := start.UTC().Format(time.RFC3339Nano)
	endStr := end.UTC().Format(time.RFC3339Nano)

	switch sensorType {
	case models.SensorTypePing:
		rows, err := d.DB.Query(`
			SELECT sensor_id, timestamp, status, latency_ms FROM ping_results
			WHERE sensor_id = ? AND timestamp BETWEEN ? AND ?
			ORDER BY timestamp ASC`, sensorID, startStr, endStr)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		return scanPingRows(rows)

	case models.SensorTypeEthernet:
		rows, err := d.DB.Query(`
			SELECT sensor_id, timestamp, status, speed, rx_bitrate, tx_bitrate FROM ethernet_results
			WHERE sensor_id = ? AND timestamp BETWEEN ? AND ?
			ORDER BY timestamp ASC`, sensorID, startStr, endStr)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		return scanEthernetRows(rows)

	default:
		return nil, fmt.Errorf("unknown sensor type %q", sensorType)
	}
}

// -----------------------------------------------------------------------------
// Shared row scanners (timestamps are stored as RFC3339 text in both
// backends)
// -----------------------------------------------------------------------------

func scanPingRows(rows *sql.Rows) ([]models.MReading, error) {
	var readings []models.MReading
	for rows.Next() {
		var r models.MReading
		var ts string
		var latency sql.NullFloat64
		if err := rows.Scan(&r.SensorID, &ts, &r.Status, &latency); err != nil {
			return nil, err
		}
		r.SensorType = models.SensorTypePing
		if parsed, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			r.Timestamp = parsed
		}
		if latency.Valid {
			v := latency.Float64
			r.LatencyMs = &v
		}
		readings = append(readings, r)
	}
	return readings, rows.Err()
}

func scanEthernetRows(rows *sql.Rows) ([]models.MReading, error) {
	var readings []models.MReading
	for rows.Next() {
		var r models.MReading
		var ts string
		if err := rows.Scan(&r.SensorID, &ts, &r.Status, &r.Speed, &r.RxBitrate, &r.TxBitrate); err != nil {
			return nil, err
		}
		r.SensorType = models.SensorTypeEthernet
		if parsed, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			r.Timestamp = parsed
		}
		readings = append(readings, r)
	}
	return readings, rows.Err()
}
