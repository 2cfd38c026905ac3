package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 64, cfg.Threads)
	assert.Equal(t, 100, cfg.HistorySize)
	assert.Equal(t, 3, cfg.Alerts.ConsecutiveFailures)
	assert.Equal(t, 5*time.Minute, cfg.Alerts.Cooldown)
}

func TestValidateRejectsBadThresholds(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero threads", func(c *Config) { c.Threads = 0 }},
		{"negative interval", func(c *Config) { c.MonitorInterval = -time.Second }},
		{"zero history", func(c *Config) { c.HistorySize = 0 }},
		{"zero latency threshold", func(c *Config) { c.Alerts.LatencyThreshold = 0 }},
		{"zero consecutive failures", func(c *Config) { c.Alerts.ConsecutiveFailures = 0 }},
		{"negative cooldown", func(c *Config) { c.Alerts.Cooldown = -time.Minute }},
		{"batching without interval", func(c *Config) {
			c.Alerts.BatchAlerts = true
			c.Alerts.BatchInterval = 0
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
