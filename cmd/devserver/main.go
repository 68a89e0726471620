package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"monitor-observer/src/config"
	"monitor-observer/src/devserver"
	"monitor-observer/src/interfaces"
	"monitor-observer/src/logger"
	"monitor-observer/src/models"
	"monitor-observer/src/storage"
)

// -----------------------------------------------------------------------------

func main() {
	// 1. Parse command line flags
	configPath := flag.String("config", "../../config/default.yaml", "path to config file")
	flag.Parse()

	// 2. Load config
	conf, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// 3. Setup Logger
	appLogger := newLogger(conf, "DevServer")

	// 4. Storage backend
	db, err := newDatabase(conf, appLogger)
	if err != nil {
		appLogger.Critical("Storage init failed: %v", err)
	}
	defer db.Close()

	// 5. Seed a sample topology on first run so the simulator has
	// something to emit.
	if err := seedIfEmpty(db, appLogger); err != nil {
		appLogger.Critical("Seeding failed: %v", err)
	}

	// 6. Start the server
	server := devserver.NewDevServer(conf.MConfig, db, newLogger(conf, "Server"))

	go func() {
		if err := server.Start(); err != nil {
			appLogger.Critical("Server failed: %v", err)
		}
	}()

	// 7. Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down...")
	if err := server.Stop(); err != nil {
		appLogger.Error("Shutdown error: %v", err)
	}
}

// -----------------------------------------------------------------------------

func newLogger(conf *config.Config, name string) *logger.Logger {
	if strings.EqualFold(conf.LogLevel, "debug") {
		return logger.NewDebugLogger(name)
	}
	return logger.NewLogger(name)
}

// -----------------------------------------------------------------------------

func newDatabase(conf *config.Config, log *logger.Logger) (interfaces.IDatabase, error) {
	var db interfaces.IDatabase
	var err error

	switch strings.ToLower(conf.Storage.DBType) {
	case "postgres":
		db, err = storage.NewPostgresDB(conf.MConfig, log)
	case "", "sqlite":
		db, err = storage.NewSQLiteDB(conf.MConfig, log)
	default:
		return nil, fmt.Errorf("unknown db_type: %s", conf.Storage.DBType)
	}
	if err != nil {
		return nil, err
	}
	if err := db.Initialize(); err != nil {
		return nil, err
	}
	return db, nil
}

// -----------------------------------------------------------------------------

// seedIfEmpty creates one device with a ping and an ethernet sensor when the
// database has no sensors yet.
func seedIfEmpty(db interfaces.IDatabase, log *logger.Logger) error {
	sensors, err := db.ListSensors()
	if err != nil {
		return err
	}
	if len(sensors) > 0 {
		return nil
	}

	log.Info("Empty database, seeding sample device and sensors")

	device := models.MDevice{
		ID:         "dev-1",
		ClientName: "gateway",
		IPAddress:  "192.168.1.1",
		Status:     "active",
	}
	if err := db.SaveDevice(device); err != nil {
		return err
	}

	seeds := []models.MSensor{
		{
			DeviceID:   device.ID,
			Name:       "gateway ping",
			SensorType: models.SensorTypePing,
			Config:     map[string]interface{}{"interval_sec": 5.0, "latency_threshold_ms": 100.0},
		},
		{
			DeviceID:   device.ID,
			Name:       "uplink ethernet",
			SensorType: models.SensorTypeEthernet,
			Config:     map[string]interface{}{"interval_sec": 5.0},
		},
	}
	for _, s := range seeds {
		if _, err := db.SaveSensor(s); err != nil {
			return err
		}
	}
	return nil
}
