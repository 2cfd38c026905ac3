package monitor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanwatch/lanwatch/pkg/models"
)

func sampleAt(i int) models.Sample {
	return models.Sample{
		Timestamp: time.Unix(int64(i), 0),
		Latency:   time.Duration(i) * time.Millisecond,
		Up:        true,
	}
}

func TestHistoryNeverExceedsCapacity(t *testing.T) {
	h := NewHistory(10)

	for i := 0; i < 35; i++ {
		h.Append(sampleAt(i))
		assert.LessOrEqual(t, h.Len(), 10)
	}
	assert.Equal(t, 10, h.Len())
}

func TestHistoryKeepsMostRecentInOrder(t *testing.T) {
	// After capacity+k inserts the buffer holds the most recent capacity
	// samples, chronologically.
	h := NewHistory(5)
	for i := 0; i < 8; i++ {
		h.Append(sampleAt(i))
	}

	snapshot := h.Snapshot()
	require.Len(t, snapshot, 5)
	for i, s := range snapshot {
		assert.Equal(t, time.Unix(int64(i+3), 0), s.Timestamp)
	}
}

func TestHistoryPartiallyFilled(t *testing.T) {
	h := NewHistory(100)
	for i := 0; i < 3; i++ {
		h.Append(sampleAt(i))
	}

	assert.Equal(t, 3, h.Len())
	assert.Equal(t, 100, h.Cap())
	assert.Len(t, h.Snapshot(), 3)
}

func TestSummarize(t *testing.T) {
	samples := []models.Sample{
		{Latency: 10 * time.Millisecond, Up: true},
		{Latency: 20 * time.Millisecond, Up: true},
		{Up: false},
		{Latency: 30 * time.Millisecond, Up: true},
	}

	stats := Summarize(samples)
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 3, stats.Successful)
	assert.Equal(t, 20*time.Millisecond, stats.Avg)
	assert.Equal(t, 10*time.Millisecond, stats.Min)
	assert.Equal(t, 30*time.Millisecond, stats.Max)
	assert.InDelta(t, 25.0, stats.Loss, 0.001)
}

func TestSummarizeEmpty(t *testing.T) {
	stats := Summarize(nil)
	assert.Zero(t, stats.Total)
	assert.Zero(t, stats.Loss)
}
