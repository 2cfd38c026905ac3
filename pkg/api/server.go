package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/lanwatch/lanwatch/pkg/config"
	"github.com/lanwatch/lanwatch/pkg/discovery"
	"github.com/lanwatch/lanwatch/pkg/models"
	"github.com/lanwatch/lanwatch/pkg/monitor"
)

// maxStoredAlerts bounds the in-memory alert feed served by the API.
const maxStoredAlerts = 200

// ServerConfig contains configuration for the HTTP API server.
type ServerConfig struct {
	Port       string
	EnableCORS bool
}

// Server exposes scan results, monitoring history and the alert stream over
// a read-only HTTP API, plus start/stop control of scan passes.
type Server struct {
	router   *gin.Engine
	logger   *logrus.Logger
	cfg      config.Config
	srvCfg   ServerConfig
	registry *monitor.Registry

	mu       sync.RWMutex
	devices  []models.DeviceRecord
	alerts   []models.AlertEvent
	scanner  *discovery.Scanner
	scanning bool
	progress int
	lastScan time.Time
}

// NewServer creates the API server. The registry may be nil when monitoring
// is not in use.
func NewServer(cfg config.Config, srvCfg ServerConfig, registry *monitor.Registry, logger *logrus.Logger) *Server {
	if logger == nil {
		logger = logrus.New()
	}
	if srvCfg.Port == "" {
		srvCfg.Port = "8080"
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.Default()

	s := &Server{
		router:   router,
		logger:   logger,
		cfg:      cfg,
		srvCfg:   srvCfg,
		registry: registry,
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	if s.srvCfg.EnableCORS {
		s.router.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Origin")

			if c.Request.Method == "OPTIONS" {
				c.AbortWithStatus(http.StatusNoContent)
				return
			}

			c.Next()
		})
	}

	api := s.router.Group("/api")
	{
		api.GET("/devices", s.handleGetDevices)
		api.GET("/devices/:ip", s.handleGetDevice)
		api.GET("/devices/:ip/history", s.handleGetHistory)
		api.GET("/alerts", s.handleGetAlerts)

		api.POST("/scan/start", s.handleStartScan)
		api.POST("/scan/stop", s.handleStopScan)
		api.GET("/scan/status", s.handleScanStatus)
	}
}

// Start runs the HTTP server. It blocks until the server stops.
func (s *Server) Start() error {
	s.logger.Infof("API server listening on :%s", s.srvCfg.Port)
	return s.router.Run(":" + s.srvCfg.Port)
}

// SetDevices replaces the device list served by the API, typically after a
// scan pass completes.
func (s *Server) SetDevices(devices []models.DeviceRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.devices = devices
	s.lastScan = time.Now()
}

// RecordAlert appends an event to the bounded alert feed.
func (s *Server) RecordAlert(event models.AlertEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append(s.alerts, event)
	if len(s.alerts) > maxStoredAlerts {
		s.alerts = s.alerts[len(s.alerts)-maxStoredAlerts:]
	}
}

func (s *Server) handleGetDevices(c *gin.Context) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c.JSON(http.StatusOK, gin.H{
		"devices":   s.devices,
		"count":     len(s.devices),
		"last_scan": s.lastScan,
	})
}

func (s *Server) handleGetDevice(c *gin.Context) {
	ip := c.Param("ip")

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, device := range s.devices {
		if device.IP == ip {
			c.JSON(http.StatusOK, device)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "device not found"})
}

func (s *Server) handleGetHistory(c *gin.Context) {
	ip := c.Param("ip")

	if s.registry == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "monitoring not enabled"})
		return
	}

	m, ok := s.registry.Get(ip)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "address not monitored"})
		return
	}

	samples := m.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"ip":      ip,
		"samples": samples,
		"stats":   monitor.Summarize(samples),
	})
}

func (s *Server) handleGetAlerts(c *gin.Context) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c.JSON(http.StatusOK, gin.H{
		"alerts": s.alerts,
		"count":  len(s.alerts),
	})
}

func (s *Server) handleStartScan(c *gin.Context) {
	s.mu.Lock()
	if s.scanning {
		s.mu.Unlock()
		c.JSON(http.StatusConflict, gin.H{"error": "scan already in progress"})
		return
	}
	scanner := discovery.NewScanner(s.cfg, nil, s.logger)
	s.scanner = scanner
	s.scanning = true
	s.progress = 0
	s.mu.Unlock()

	go func() {
		devices, err := scanner.Scan(context.Background(), nil, func(percent int) {
			s.mu.Lock()
			s.progress = percent
			s.mu.Unlock()
		})

		s.mu.Lock()
		s.scanning = false
		s.scanner = nil
		if err == nil {
			s.devices = devices
			s.lastScan = time.Now()
		}
		s.mu.Unlock()

		if err != nil {
			s.logger.Errorf("Scan failed: %v", err)
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{"status": "scan started", "range": s.cfg.IPRange})
}

func (s *Server) handleStopScan(c *gin.Context) {
	s.mu.Lock()
	scanner := s.scanner
	s.mu.Unlock()

	if scanner == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "no scan in progress"})
		return
	}

	scanner.Stop()
	c.JSON(http.StatusOK, gin.H{"status": "stop requested"})
}

func (s *Server) handleScanStatus(c *gin.Context) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c.JSON(http.StatusOK, gin.H{
		"scanning": s.scanning,
		"progress": s.progress,
	})
}
