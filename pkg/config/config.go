package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/lanwatch/lanwatch/pkg/models"
)

// Config holds the scanner, monitor and alerting configuration
type Config struct {
	IPRange        string        // IP range in CIDR notation
	Threads        int           // Number of concurrent scanning workers
	ArpTimeout     time.Duration // Timeout for layer-2 discovery
	PingTimeout    time.Duration // Timeout for the fallback ping
	LookupTimeout  time.Duration // Timeout for reverse name lookups
	ServiceTimeout time.Duration // Timeout for web service checks
	Verbose        bool          // Enable verbose output
	OutputFile     string        // File to write scan results to

	MonitorInterval time.Duration // Delay between monitoring ticks
	HistorySize     int           // Samples kept per monitored device

	Alerts AlertConfig // Threshold and delivery settings
}

// AlertConfig controls when alerts fire and how they are delivered.
type AlertConfig struct {
	LatencyThreshold    time.Duration // Latency above this counts as a failure
	ConsecutiveFailures int           // Failures required before alerting
	Cooldown            time.Duration // Minimum gap between alerts per device
	BatchAlerts         bool          // Queue alerts instead of sending immediately
	BatchInterval       time.Duration // How long a batch accumulates
	Recipients          []string      // Recipient identifiers passed to the sender
	SubjectTemplate     string        // Subject line, %s replaced by alert type
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() Config {
	return Config{
		IPRange:        "192.168.1.0/24",
		Threads:        64,
		ArpTimeout:     500 * time.Millisecond,
		PingTimeout:    2 * time.Second,
		LookupTimeout:  time.Second,
		ServiceTimeout: 300 * time.Millisecond,

		MonitorInterval: 2 * time.Second,
		HistorySize:     100,

		Alerts: AlertConfig{
			LatencyThreshold:    1000 * time.Millisecond,
			ConsecutiveFailures: 3,
			Cooldown:            5 * time.Minute,
			BatchAlerts:         false,
			BatchInterval:       15 * time.Minute,
			SubjectTemplate:     "Network Monitor Alert - %s",
		},
	}
}

// Validate checks threshold values that must be surfaced to the caller
// before any scanning or monitoring starts.
func (c Config) Validate() error {
	if c.Threads <= 0 {
		return fmt.Errorf("threads must be positive, got %d", c.Threads)
	}
	if c.MonitorInterval <= 0 {
		return fmt.Errorf("monitor interval must be positive, got %s", c.MonitorInterval)
	}
	if c.HistorySize <= 0 {
		return fmt.Errorf("history size must be positive, got %d", c.HistorySize)
	}
	if c.Alerts.LatencyThreshold <= 0 {
		return fmt.Errorf("latency threshold must be positive, got %s", c.Alerts.LatencyThreshold)
	}
	if c.Alerts.ConsecutiveFailures <= 0 {
		return fmt.Errorf("consecutive failures must be positive, got %d", c.Alerts.ConsecutiveFailures)
	}
	if c.Alerts.Cooldown < 0 {
		return fmt.Errorf("cooldown must not be negative, got %s", c.Alerts.Cooldown)
	}
	if c.Alerts.BatchAlerts && c.Alerts.BatchInterval <= 0 {
		return fmt.Errorf("batch interval must be positive, got %s", c.Alerts.BatchInterval)
	}
	return nil
}

// LoadConfigFromFile loads configuration from a JSON file
func LoadConfigFromFile(filePath string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(filePath)
	if err != nil {
		return cfg, err
	}

	err = json.Unmarshal(data, &cfg)
	return cfg, err
}

// WriteResultsToFile writes scan results to a JSON file
func WriteResultsToFile(devices []models.DeviceRecord, filePath string) error {
	data, err := json.MarshalIndent(devices, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filePath, data, 0644)
}
