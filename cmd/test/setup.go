package main

import (
	"fmt"
	"net/http"
	"time"

	"monitor-observer/src/devserver"
	"monitor-observer/src/interfaces"
	"monitor-observer/src/logger"
	"monitor-observer/src/models"
	"monitor-observer/src/realtime"
	"monitor-observer/src/rest"
	"monitor-observer/src/session"
	"monitor-observer/src/storage"
)

const testPort = 18099

// -----------------------------------------------------------------------------

// buildTestConfig returns a self-contained config so the harness needs no
// yaml file on disk.
func buildTestConfig() *models.MConfig {
	return &models.MConfig{
		Name:     "monitor-observer-e2e",
		LogLevel: "debug",
		API: models.MAPIConfig{
			BaseURL:          fmt.Sprintf("http://127.0.0.1:%d", testPort),
			RequestTimeout:   10,
			TokenWaitSeconds: 5,
		},
		Realtime: models.MRealtimeConfig{
			ReconnectBaseSeconds: 1,
			ReconnectMaxSeconds:  15,
			KeepAliveSeconds:     25,
		},
		Server: models.MServerConfig{
			Host:                   "127.0.0.1",
			Port:                   testPort,
			SimulateIntervalSecond: 1,
			RecentReadingsCapacity: 50,
		},
		Storage: models.MStorageConfig{
			DBType: "sqlite",
			DBPath: "file:e2e?mode=memory&cache=shared",
		},
		Views: models.MViewsConfig{
			DefaultTimeRange: "1h",
			MaxChartPoints:   500,
		},
	}
}

// -----------------------------------------------------------------------------

func setupDatabase(conf *models.MConfig, appLogger *logger.Logger) (interfaces.IDatabase, error) {
	db, err := storage.NewSQLiteDB(conf, logger.NewLogger("SQLiteDB"))
	if err != nil {
		return nil, err
	}
	if err := db.Initialize(); err != nil {
		return nil, err
	}
	appLogger.Info("In-memory database ready")
	return db, nil
}

// -----------------------------------------------------------------------------

// seedTopology creates one device with a ping and an ethernet sensor and
// returns the sensor ids.
func seedTopology(db interfaces.IDatabase) ([]int, error) {
	device := models.MDevice{
		ID:         "dev-e2e",
		ClientName: "e2e gateway",
		IPAddress:  "10.0.0.1",
		Status:     "active",
	}
	if err := db.SaveDevice(device); err != nil {
		return nil, err
	}

	seeds := []models.MSensor{
		{
			DeviceID:   device.ID,
			Name:       "e2e ping",
			SensorType: models.SensorTypePing,
			Config:     map[string]interface{}{"interval_sec": 1.0, "latency_threshold_ms": 100.0},
		},
		{
			DeviceID:   device.ID,
			Name:       "e2e ethernet",
			SensorType: models.SensorTypeEthernet,
			Config:     map[string]interface{}{"interval_sec": 1.0},
		},
	}

	var ids []int
	for _, s := range seeds {
		id, err := db.SaveSensor(s)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// -----------------------------------------------------------------------------

// startServer runs the dev server on a real port and waits for its health
// endpoint to answer.
func startServer(conf *models.MConfig, db interfaces.IDatabase, appLogger *logger.Logger) (*devserver.DevServer, error) {
	srv := devserver.NewDevServer(conf, db, logger.NewLogger("Server"))

	go func() {
		if err := srv.Start(); err != nil {
			appLogger.Error("Server exited: %v", err)
		}
	}()

	healthURL := fmt.Sprintf("http://127.0.0.1:%d/api/health", testPort)
	for i := 0; i < 50; i++ {
		resp, err := http.Get(healthURL)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return srv, nil
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	return nil, fmt.Errorf("server did not become healthy")
}

// -----------------------------------------------------------------------------

// TestClient bundles the full client-side stack.
type TestClient struct {
	Session    *session.Manager
	API        *rest.API
	Manager    *realtime.Manager
	Subscriber *realtime.Subscriber
}

// -----------------------------------------------------------------------------

func setupClient(conf *models.MConfig, appLogger *logger.Logger) *TestClient {
	sess := session.NewManager(logger.NewLogger("Session"))
	api := rest.NewAPI(rest.NewClient(conf, sess, logger.NewLogger("RestClient")))
	manager := realtime.NewManager(conf, sess, logger.NewDebugLogger("Realtime"), nil)
	subscriber := realtime.NewSubscriber(manager, logger.NewLogger("Subscriber"))

	sess.SetSession(&models.MSession{AccessToken: "e2e-token"})

	return &TestClient{
		Session:    sess,
		API:        api,
		Manager:    manager,
		Subscriber: subscriber,
	}
}
