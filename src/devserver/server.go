package devserver

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"monitor-observer/src/interfaces"
	"monitor-observer/src/logger"
	"monitor-observer/src/models"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------
// DevServer
//
// A simulation backend exposing the REST and stream surface the client core
// exercises: device/sensor inventory, history range queries and the /ws
// stream with subscribe/sync handling. Sensor readings are generated by the
// runner manager, persisted through IDatabase and broadcast to subscribers.
// -----------------------------------------------------------------------------

type DevServer struct {
	Config *models.MConfig
	Logger *logger.Logger
	DB     interfaces.IDatabase

	engine  *gin.Engine
	hub     *Hub
	Runners *RunnerManager
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewDevServer(cfg *models.MConfig, db interfaces.IDatabase, log *logger.Logger) *DevServer {
	// Set Gin mode
	if !strings.EqualFold(cfg.LogLevel, "debug") {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &DevServer{
		Config: cfg,
		Logger: log,
		DB:     db,
		engine: gin.Default(),
	}
	s.hub = NewHub(cfg, log)
	s.Runners = NewRunnerManager(cfg, db, s.hub, log)

	// Add CORS Middleware
	s.engine.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// setup web routes
	s.setupRoutes()
	return s
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *DevServer) setupRoutes() {
	// REST API endpoints
	s.engine.GET("/api/health", s.getHealth)
	s.engine.GET("/api/devices", s.getDevices)
	s.engine.POST("/api/devices", s.postDevice)
	s.engine.GET("/api/sensors", s.getSensors)
	s.engine.POST("/api/sensors", s.postSensor)
	s.engine.DELETE("/api/sensors/:id", s.deleteSensor)
	s.engine.GET("/api/sensors/:id/history_range", s.getSensorHistory)

	// WebSocket endpoint
	s.engine.GET("/ws", s.handleWebSocket)
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

func (s *DevServer) Start() error {
	addr := fmt.Sprintf("%s:%d", s.Config.Server.Host, s.Config.Server.Port)
	s.Logger.Info("Starting dev server on %s", addr)

	go s.hub.run()
	if err := s.Runners.StartAll(); err != nil {
		return err
	}

	return s.engine.Run(addr)
}

// -----------------------------------------------------------------------------

func (s *DevServer) Stop() error {
	s.Runners.StopAll()
	s.hub.stop()
	return nil
}

// -----------------------------------------------------------------------------

// Handler exposes the gin engine for in-process test servers. The hub loop
// must be running; StartForTest arranges that without binding a port.
func (s *DevServer) Handler() http.Handler {
	return s.engine
}

// -----------------------------------------------------------------------------

// StartForTest launches the hub and runners without the HTTP listener.
func (s *DevServer) StartForTest() error {
	go s.hub.run()
	return s.Runners.StartAll()
}

// -----------------------------------------------------------------------------
// Route Handlers
// -----------------------------------------------------------------------------

func (s *DevServer) getHealth(c *gin.Context) {
	c.JSON(200, gin.H{
		"status":  "ok",
		"clients": s.hub.ClientCount(),
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// -----------------------------------------------------------------------------

func (s *DevServer) getDevices(c *gin.Context) {
	devices, err := s.DB.ListDevices()
	if err != nil {
		c.JSON(500, gin.H{"detail": err.Error()})
		return
	}
	if devices == nil {
		devices = []models.MDevice{}
	}
	c.JSON(200, devices)
}

// -----------------------------------------------------------------------------

func (s *DevServer) postDevice(c *gin.Context) {
	var dev models.MDevice
	if err := c.ShouldBindJSON(&dev); err != nil {
		c.JSON(400, gin.H{"detail": err.Error()})
		return
	}
	if err := s.DB.SaveDevice(dev); err != nil {
		c.JSON(500, gin.H{"detail": err.Error()})
		return
	}
	c.JSON(200, dev)
}

// -----------------------------------------------------------------------------

func (s *DevServer) getSensors(c *gin.Context) {
	sensors, err := s.DB.ListSensors()
	if err != nil {
		c.JSON(500, gin.H{"detail": err.Error()})
		return
	}
	if sensors == nil {
		sensors = []models.MSensor{}
	}
	c.JSON(200, sensors)
}

// -----------------------------------------------------------------------------

func (s *DevServer) postSensor(c *gin.Context) {
	var sensor models.MSensor
	if err := c.ShouldBindJSON(&sensor); err != nil {
		c.JSON(400, gin.H{"detail": err.Error()})
		return
	}

	id, err := s.DB.SaveSensor(sensor)
	if err != nil {
		c.JSON(500, gin.H{"detail": err.Error()})
		return
	}
	sensor.ID = id

	// New sensors start producing readings immediately
	if err := s.Runners.StartSensor(sensor); err != nil {
		s.Logger.Warning("could not start runner for sensor %d: %v", id, err)
	}

	c.JSON(200, sensor)
}

// -----------------------------------------------------------------------------

func (s *DevServer) deleteSensor(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(400, gin.H{"detail": "invalid sensor id"})
		return
	}

	s.Runners.StopSensor(id)
	if err := s.DB.DeleteSensor(id); err != nil {
		c.JSON(500, gin.H{"detail": err.Error()})
		return
	}
	c.JSON(200, gin.H{"deleted": id})
}

// -----------------------------------------------------------------------------

func (s *DevServer) getSensorHistory(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(400, gin.H{"detail": "invalid sensor id"})
		return
	}

	start, err := time.Parse(time.RFC3339, c.Query("start"))
	if err != nil {
		c.JSON(400, gin.H{"detail": "invalid start time"})
		return
	}
	end, err := time.Parse(time.RFC3339, c.Query("end"))
	if err != nil {
		c.JSON(400, gin.H{"detail": "invalid end time"})
		return
	}

	sensorType, err := s.sensorType(id)
	if err != nil {
		c.JSON(404, gin.H{"detail": "sensor not found"})
		return
	}

	readings, err := s.DB.ReadingsRange(id, sensorType, start, end)
	if err != nil {
		c.JSON(500, gin.H{"detail": err.Error()})
		return
	}
	if readings == nil {
		readings = []models.MReading{}
	}
	c.JSON(200, readings)
}

// -----------------------------------------------------------------------------

func (s *DevServer) sensorType(id int) (string, error) {
	sensors, err := s.DB.ListSensors()
	if err != nil {
		return "", err
	}
	for _, sensor := range sensors {
		if sensor.ID == id {
			return sensor.SensorType, nil
		}
	}
	return "", fmt.Errorf("sensor %d not found", id)
}

// -----------------------------------------------------------------------------

func (s *DevServer) handleWebSocket(c *gin.Context) {
	s.hub.ServeWS(c.Writer, c.Request)
}
