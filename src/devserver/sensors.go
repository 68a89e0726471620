package devserver

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"monitor-observer/src/interfaces"
	"monitor-observer/src/logger"
	"monitor-observer/src/models"
)

// -----------------------------------------------------------------------------
// RunnerManager keeps one simulation loop per sensor, started on sensor
// creation and stopped on deletion. Each loop generates a plausible reading
// per interval, persists it and hands it to the hub for broadcast.
// -----------------------------------------------------------------------------

type RunnerManager struct {
	Config *models.MConfig
	DB     interfaces.IDatabase
	Hub    *Hub
	Logger *logger.Logger

	mu      sync.Mutex
	runners map[int]*sensorRunner
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

type sensorRunner struct {
	sensor models.MSensor
	cancel context.CancelFunc
}

// -----------------------------------------------------------------------------

func NewRunnerManager(cfg *models.MConfig, db interfaces.IDatabase, hub *Hub, log *logger.Logger) *RunnerManager {
	ctx, cancel := context.WithCancel(context.Background())
	return &RunnerManager{
		Config:  cfg,
		DB:      db,
		Hub:     hub,
		Logger:  log,
		runners: make(map[int]*sensorRunner),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// -----------------------------------------------------------------------------

// StartAll launches runners for every sensor already in the store.
func (m *RunnerManager) StartAll() error {
	sensors, err := m.DB.ListSensors()
	if err != nil {
		return fmt.Errorf("cannot list sensors: %w", err)
	}
	for _, s := range sensors {
		if err := m.StartSensor(s); err != nil {
			m.Logger.Error("Error starting sensor %d: %v", s.ID, err)
		}
	}
	return nil
}

// -----------------------------------------------------------------------------

// StartSensor starts the simulation loop for one sensor.
func (m *RunnerManager) StartSensor(s models.MSensor) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.runners[s.ID]; exists {
		return fmt.Errorf("sensor %d already running", s.ID)
	}

	ctx, cancel := context.WithCancel(m.ctx)
	m.runners[s.ID] = &sensorRunner{sensor: s, cancel: cancel}

	m.wg.Add(1)
	go m.runLoop(ctx, s)

	m.Logger.Info("Started runner for sensor %d (%s)", s.ID, s.SensorType)
	return nil
}

// -----------------------------------------------------------------------------

// StopSensor stops one sensor's loop.
func (m *RunnerManager) StopSensor(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	runner, exists := m.runners[id]
	if !exists {
		return
	}
	runner.cancel()
	delete(m.runners, id)
	m.Logger.Info("Stopped runner for sensor %d", id)
}

// -----------------------------------------------------------------------------

// StopAll stops every runner and waits for the loops to exit.
func (m *RunnerManager) StopAll() {
	m.cancel()
	m.mu.Lock()
	m.runners = make(map[int]*sensorRunner)
	m.mu.Unlock()
	m.wg.Wait()
}

// -----------------------------------------------------------------------------

// runLoop is the per-sensor simulation loop.
func (m *RunnerManager) runLoop(ctx context.Context, s models.MSensor) {
	defer m.wg.Done()

	interval := time.Duration(m.Config.Server.SimulateIntervalSecond) * time.Second
	if v, ok := s.Config["interval_sec"].(float64); ok && v > 0 {
		interval = time.Duration(v) * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			reading := m.generateReading(s)
			if err := m.DB.InsertReading(reading); err != nil {
				m.Logger.Error("Error storing reading for sensor %d: %v", s.ID, err)
				continue
			}
			m.Hub.Broadcast(reading)
		}
	}
}

// -----------------------------------------------------------------------------

// generateReading produces one plausible measurement for the sensor.
func (m *RunnerManager) generateReading(s models.MSensor) models.MReading {
	now := time.Now().UTC()

	switch s.SensorType {
	case models.SensorTypeEthernet:
		reading := models.MReading{
			SensorID:   s.ID,
			SensorType: models.SensorTypeEthernet,
			Timestamp:  now,
			Status:     "link_up",
			Speed:      "1Gbps",
			RxBitrate:  fmt.Sprintf("%d", 1_000_000+rand.Intn(90_000_000)),
			TxBitrate:  fmt.Sprintf("%d", 500_000+rand.Intn(40_000_000)),
		}
		if rand.Float64() < 0.02 {
			reading.Status = "link_down"
			reading.RxBitrate = "0"
			reading.TxBitrate = "0"
		}
		return reading

	default:
		// Ping sensor: mostly ok, occasionally slow, rarely a timeout.
		threshold := 100.0
		if v, ok := s.Config["latency_threshold_ms"].(float64); ok && v > 0 {
			threshold = v
		}

		reading := models.MReading{
			SensorID:   s.ID,
			SensorType: models.SensorTypePing,
			Timestamp:  now,
		}

		switch roll := rand.Float64(); {
		case roll < 0.02:
			reading.Status = "timeout"
		case roll < 0.07:
			latency := threshold + rand.Float64()*threshold
			reading.Status = "high_latency"
			reading.LatencyMs = &latency
		default:
			latency := 5 + rand.Float64()*(threshold*0.6)
			reading.Status = "ok"
			reading.LatencyMs = &latency
		}
		return reading
	}
}
