package discovery

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanwatch/lanwatch/pkg/config"
	"github.com/lanwatch/lanwatch/pkg/models"
)

// fakeProber answers for a fixed set of addresses and can be told to panic
// on specific ones.
type fakeProber struct {
	mu      sync.Mutex
	online  map[string]time.Duration
	panicOn map[string]bool
	probed  []string
}

func (f *fakeProber) ProbeAddress(_ context.Context, ip string) (*models.DeviceRecord, error) {
	f.mu.Lock()
	f.probed = append(f.probed, ip)
	f.mu.Unlock()

	if f.panicOn[ip] {
		panic("probe exploded")
	}

	latency, ok := f.online[ip]
	if !ok {
		return nil, nil
	}
	return &models.DeviceRecord{
		IP:       ip,
		Hostname: "Unknown",
		Vendor:   "Unknown",
		Latency:  latency,
		Status:   models.StatusOnline,
		LastSeen: time.Now(),
	}, nil
}

func testConfig(cidr string) config.Config {
	cfg := config.DefaultConfig()
	cfg.IPRange = cidr
	cfg.Threads = 4
	return cfg
}

func TestScanFindsRespondingHosts(t *testing.T) {
	// Two usable hosts: .1 answers discovery in 12ms, .2 never answers.
	prober := &fakeProber{online: map[string]time.Duration{
		"10.0.0.1": 12 * time.Millisecond,
	}}
	scanner := NewScanner(testConfig("10.0.0.0/30"), prober, nil)

	var progress []int
	devices, err := scanner.Scan(context.Background(), nil, func(p int) {
		progress = append(progress, p)
	})
	require.NoError(t, err)

	require.Len(t, devices, 1)
	assert.Equal(t, "10.0.0.1", devices[0].IP)
	assert.Equal(t, models.StatusOnline, devices[0].Status)
	assert.Equal(t, 12*time.Millisecond, devices[0].Latency)

	require.NotEmpty(t, progress)
	assert.Equal(t, 100, progress[len(progress)-1])
}

func TestScanProgressMonotone(t *testing.T) {
	online := map[string]time.Duration{}
	ips, err := ExpandRange("10.0.1.0/28")
	require.NoError(t, err)
	for _, ip := range ips {
		online[ip] = time.Millisecond
	}

	scanner := NewScanner(testConfig("10.0.1.0/28"), &fakeProber{online: online}, nil)

	var progress []int
	devices, err := scanner.Scan(context.Background(), nil, func(p int) {
		progress = append(progress, p)
	})
	require.NoError(t, err)
	assert.Len(t, devices, len(ips))

	require.Len(t, progress, len(ips))
	for i := 1; i < len(progress); i++ {
		assert.GreaterOrEqual(t, progress[i], progress[i-1])
	}
	assert.Equal(t, 100, progress[len(progress)-1])
}

func TestScanResultsSortedByAddress(t *testing.T) {
	online := map[string]time.Duration{
		"10.0.1.9":  time.Millisecond,
		"10.0.1.10": time.Millisecond,
		"10.0.1.2":  time.Millisecond,
	}
	scanner := NewScanner(testConfig("10.0.1.0/28"), &fakeProber{online: online}, nil)

	devices, err := scanner.Scan(context.Background(), nil, nil)
	require.NoError(t, err)

	require.Len(t, devices, 3)
	assert.Equal(t, "10.0.1.2", devices[0].IP)
	assert.Equal(t, "10.0.1.9", devices[1].IP)
	assert.Equal(t, "10.0.1.10", devices[2].IP)
}

func TestScanPerRecordCallback(t *testing.T) {
	online := map[string]time.Duration{
		"10.0.0.1": time.Millisecond,
		"10.0.0.2": time.Millisecond,
	}
	scanner := NewScanner(testConfig("10.0.0.0/29"), &fakeProber{online: online}, nil)

	var mu sync.Mutex
	seen := map[string]bool{}
	_, err := scanner.Scan(context.Background(), func(record models.DeviceRecord) {
		mu.Lock()
		seen[record.IP] = true
		mu.Unlock()
	}, nil)
	require.NoError(t, err)

	assert.True(t, seen["10.0.0.1"])
	assert.True(t, seen["10.0.0.2"])
}

func TestScanCancelledBeforeStart(t *testing.T) {
	scanner := NewScanner(testConfig("10.0.1.0/24"), &fakeProber{}, nil)
	scanner.Stop()

	var progress []int
	devices, err := scanner.Scan(context.Background(), nil, func(p int) {
		progress = append(progress, p)
	})
	require.NoError(t, err)

	assert.Empty(t, devices)
	require.NotEmpty(t, progress)
	assert.Equal(t, 100, progress[len(progress)-1])
}

func TestScanStoppedAfterCompletionReportsOnce(t *testing.T) {
	// Stop landing after the last address resolved must not repeat the
	// final progress report.
	prober := &fakeProber{online: map[string]time.Duration{
		"10.0.0.1": time.Millisecond,
	}}
	scanner := NewScanner(testConfig("10.0.0.0/30"), prober, nil)

	var progress []int
	_, err := scanner.Scan(context.Background(), nil, func(p int) {
		progress = append(progress, p)
		if p == 100 {
			scanner.Stop()
		}
	})
	require.NoError(t, err)

	finals := 0
	for _, p := range progress {
		if p == 100 {
			finals++
		}
	}
	assert.Equal(t, 1, finals)
}

func TestScanSurvivesPanickingProbe(t *testing.T) {
	prober := &fakeProber{
		online:  map[string]time.Duration{"10.0.0.2": time.Millisecond},
		panicOn: map[string]bool{"10.0.0.1": true},
	}
	scanner := NewScanner(testConfig("10.0.0.0/30"), prober, nil)

	var last int
	devices, err := scanner.Scan(context.Background(), nil, func(p int) { last = p })
	require.NoError(t, err)

	require.Len(t, devices, 1)
	assert.Equal(t, "10.0.0.2", devices[0].IP)
	assert.Equal(t, 100, last)
}

func TestScanInvalidRange(t *testing.T) {
	scanner := NewScanner(testConfig("bogus"), &fakeProber{}, nil)

	_, err := scanner.Scan(context.Background(), nil, nil)
	assert.ErrorIs(t, err, ErrInvalidRange)
}
