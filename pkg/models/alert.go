package models

import (
	"time"
)

// AlertKind identifies which threshold a device tripped.
type AlertKind string

const (
	AlertDeviceDown  AlertKind = "device_down"
	AlertHighLatency AlertKind = "high_latency"
)

// AlertEvent is produced once per qualifying evaluation and consumed exactly
// once by the dispatcher, either individually or folded into a batch.
type AlertEvent struct {
	IP        string        `json:"ip"`
	Kind      AlertKind     `json:"kind"`
	Latency   time.Duration `json:"latency_ns"`
	Hostname  string        `json:"hostname"`
	Vendor    string        `json:"vendor"`
	MAC       string        `json:"mac,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// BatchReport groups the events drained by one batch flush, keyed by device
// address, for composition into a single outgoing notification.
type BatchReport struct {
	Events        map[string][]AlertEvent `json:"events"`
	TotalCount    int                     `json:"total_count"`
	BatchInterval time.Duration           `json:"batch_interval_ns"`
}
