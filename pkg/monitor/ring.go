package monitor

import (
	"time"

	"github.com/lanwatch/lanwatch/pkg/models"
)

// History is a fixed-capacity ring of samples. When full, appending drops
// the oldest sample, so the buffer length never exceeds its capacity and
// snapshots are always chronological.
type History struct {
	samples  []models.Sample
	capacity int
	head     int
	count    int
}

// NewHistory creates a history buffer holding at most capacity samples.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = 100
	}
	return &History{
		samples:  make([]models.Sample, capacity),
		capacity: capacity,
	}
}

// Append adds a sample, evicting the oldest one if the buffer is full.
func (h *History) Append(s models.Sample) {
	h.samples[(h.head+h.count)%h.capacity] = s
	if h.count < h.capacity {
		h.count++
	} else {
		h.head = (h.head + 1) % h.capacity
	}
}

// Len returns the number of samples currently held.
func (h *History) Len() int {
	return h.count
}

// Cap returns the buffer capacity.
func (h *History) Cap() int {
	return h.capacity
}

// Snapshot returns a chronological copy of the buffered samples.
func (h *History) Snapshot() []models.Sample {
	out := make([]models.Sample, h.count)
	for i := 0; i < h.count; i++ {
		out[i] = h.samples[(h.head+i)%h.capacity]
	}
	return out
}

// Stats summarizes a buffer snapshot for trend display.
type Stats struct {
	Total      int           `json:"total"`
	Successful int           `json:"successful"`
	Avg        time.Duration `json:"avg_ns"`
	Min        time.Duration `json:"min_ns"`
	Max        time.Duration `json:"max_ns"`
	Loss       float64       `json:"loss_percent"`
}

// Summarize computes average, minimum and maximum latency over the Up
// samples and the loss percentage over all samples.
func Summarize(samples []models.Sample) Stats {
	stats := Stats{Total: len(samples)}
	if stats.Total == 0 {
		return stats
	}

	var sum time.Duration
	for _, s := range samples {
		if !s.Up || s.Latency <= 0 {
			continue
		}
		if stats.Successful == 0 || s.Latency < stats.Min {
			stats.Min = s.Latency
		}
		if s.Latency > stats.Max {
			stats.Max = s.Latency
		}
		sum += s.Latency
		stats.Successful++
	}

	if stats.Successful > 0 {
		stats.Avg = sum / time.Duration(stats.Successful)
	}
	stats.Loss = float64(stats.Total-stats.Successful) / float64(stats.Total) * 100
	return stats
}
