package models

import (
	"time"
)

// Status reports whether a device answered any liveness probe.
type Status string

const (
	StatusOnline  Status = "online"
	StatusOffline Status = "offline"
)

// MinLatency is the smallest latency a probe ever reports. Sub-millisecond
// replies are clamped to this value so a zero Latency always means
// "unmeasured" rather than "very fast".
const MinLatency = 500 * time.Microsecond

// DeviceRecord describes a host discovered during a scan pass. Records are
// value objects: a later scan pass produces a new record, it never mutates
// an earlier one.
type DeviceRecord struct {
	IP         string        `json:"ip"`
	MAC        string        `json:"mac,omitempty"`
	Hostname   string        `json:"hostname"`
	Vendor     string        `json:"vendor"`
	Latency    time.Duration `json:"latency_ns"`
	WebService string        `json:"web_service,omitempty"`
	Status     Status        `json:"status"`
	LastSeen   time.Time     `json:"last_seen"`
}

// HasLatency reports whether the record carries a measured round-trip time.
func (d DeviceRecord) HasLatency() bool {
	return d.Latency > 0
}

// Sample is one monitoring observation for a device. Latency is only
// meaningful when Up is true; a failed or timed-out probe records Up=false
// and a zero Latency, never a numeric sentinel.
type Sample struct {
	Timestamp time.Time     `json:"timestamp"`
	Latency   time.Duration `json:"latency_ns"`
	Up        bool          `json:"up"`
}
