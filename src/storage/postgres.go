package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"monitor-observer/src/logger"
	"monitor-observer/src/models"

	_ "github.com/lib/pq"
)

// -----------------------------------------------------------------------------

type PostgresDB struct {
	Config *models.MConfig
	DB     *sql.DB
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewPostgresDB(cfg *models.MConfig, log *logger.Logger) (*PostgresDB, error) {
	return &PostgresDB{
		Config: cfg,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Initialize() error {
	dsn := d.Config.Storage.DBConnectionString
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}

	if err := db.Ping(); err != nil {
		return err
	}

	d.DB = db

	if err := d.createTables(); err != nil {
		return err
	}

	d.Logger.Info("PostgresDB initialized successfully")
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) createTables() error {
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
			id SERIAL PRIMARY KEY,
			device_id TEXT,
			name TEXT,
			sensor_type TEXT,
			config TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS ping_results (
			id SERIAL PRIMARY KEY,
			sensor_id INTEGER,
			timestamp TEXT,
			status TEXT,
			latency_ms DOUBLE PRECISION
		)`,
		`CREATE TABLE IF NOT EXISTS ethernet_results (
			id SERIAL PRIMARY KEY,
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
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}

// -----------------------------------------------------------------------------
// Inventory
// -----------------------------------------------------------------------------

func (d *PostgresDB) ListDevices() ([]models.MDevice, error) {
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

func (d *PostgresDB) SaveDevice(dev models.MDevice) error {
	_, err := d.DB.Exec(`
		INSERT INTO devices (id, client_name, ip_address, mac_address, node, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			client_name = EXCLUDED.client_name,
			ip_address = EXCLUDED.ip_address,
			mac_address = EXCLUDED.mac_address,
			node = EXCLUDED.node,
			status = EXCLUDED.status`,
		dev.ID, dev.ClientName, dev.IPAddress, dev.MACAddress, dev.Node, dev.Status)
	return err
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) ListSensors() ([]models.MSensor, error) {
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

func (d *PostgresDB) SaveSensor(s models.MSensor) (int, error) {
	cfg, err := json.Marshal(s.Config)
	if err != nil {
		return 0, err
	}

	if s.ID != 0 {
		_, err := d.DB.Exec(`
			INSERT INTO sensors (id, device_id, name, sensor_type, config)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO UPDATE SET
				device_id = EXCLUDED.device_id,
				name = EXCLUDED.name,
				sensor_type = EXCLUDED.sensor_type,
				config = EXCLUDED.config`,
			s.ID, s.DeviceID, s.Name, s.SensorType, string(cfg))
		return s.ID, err
	}

	var id int
	err = d.DB.QueryRow(`INSERT INTO sensors (device_id, name, sensor_type, config) VALUES ($1, $2, $3, $4) RETURNING id`,
		s.DeviceID, s.Name, s.SensorType, string(cfg)).Scan(&id)
	return id, err
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) DeleteSensor(id int) error {
	if _, err := d.DB.Exec(`DELETE FROM sensors WHERE id = $1`, id); err != nil {
		return err
	}
	if _, err := d.DB.Exec(`DELETE FROM ping_results WHERE sensor_id = $1`, id); err != nil {
		return err
	}
	_, err := d.DB.Exec(`DELETE FROM ethernet_results WHERE sensor_id = $1`, id)
	return err
}

// -----------------------------------------------------------------------------
// Readings
// -----------------------------------------------------------------------------

func (d *PostgresDB) InsertReading(r models.MReading) error {
	ts := r.Timestamp.UTC().Format(time.RFC3339Nano)

	switch r.SensorType {
	case models.SensorTypePing:
		var latency interface{}
		if r.LatencyMs != nil {
			latency = *r.LatencyMs
		}
		_, err := d.DB.Exec(`INSERT INTO ping_results (sensor_id, timestamp, status, latency_ms) VALUES ($1, $2, $3, $4)`,
			r.SensorID, ts, r.Status, latency)
		return err

	case models.SensorTypeEthernet:
		_, err := d.DB.Exec(`INSERT INTO ethernet_results (sensor_id, timestamp, status, speed, rx_bitrate, tx_bitrate) VALUES ($1, $2, $3, $4, $5, $6)`,
			r.SensorID, ts, r.Status, r.Speed, r.RxBitrate, r.TxBitrate)
		return err

	default:
		return fmt.Errorf("unknown sensor type %q", r.SensorType)
	}
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) ReadingsRange(sensorID int, sensorType string, start, end time.Time) ([]models.MReading, error) {
	startStr := start.UTC().Format(time.RFC3339Nano)
	endStr := end.UTC().Format(time.RFC3339Nano)

	switch sensorType {
	case models.SensorTypePing:
		rows, err := d.DB.Query(`
			SELECT sensor_id, timestamp, status, latency_ms FROM ping_results
			WHERE sensor_id = $1 AND timestamp BETWEEN $2 AND $3
			ORDER BY timestamp ASC`, sensorID, startStr, endStr)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		return scanPingRows(rows)

	case models.SensorTypeEthernet:
		rows, err := d.DB.Query(`
			SELECT sensor_id, timestamp, status, speed, rx_bitrate, tx_bitrate FROM ethernet_results
			WHERE sensor_id = $1 AND timestamp BETWEEN $2 AND $3
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
