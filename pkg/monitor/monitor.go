package monitor

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lanwatch/lanwatch/pkg/models"
)

// LivenessProber checks whether a single address answers a probe and with
// what round-trip time. The discovery prober satisfies this with its
// ARP-then-ping liveness steps.
type LivenessProber interface {
	CheckLiveness(ctx context.Context, ip string) (time.Duration, bool)
}

// State is the lifecycle of a device monitor.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateStopped
)

// stopJoinWait bounds how long Stop waits for the loop to exit. A loop
// stuck in a probe past this bound is logged as a leak, not treated as an
// error.
const stopJoinWait = time.Second

// StatusFunc receives the outcome of every monitoring tick.
type StatusFunc func(ip string, latency time.Duration, up bool, timestamp time.Time)

// BufferFunc receives a full history snapshot after every tick, for
// consumers that render trend summaries.
type BufferFunc func(ip string, samples []models.Sample)

// DeviceMonitor polls one address at a fixed interval, recording samples
// into a bounded history buffer. Monitors are independent: stopping one
// never affects another.
type DeviceMonitor struct {
	ip       string
	interval time.Duration
	prober   LivenessProber
	logger   *logrus.Logger

	mu      sync.Mutex
	history *History

	state    atomic.Int32
	stopCh   chan struct{}
	doneCh   chan struct{}
	onStatus StatusFunc
	onBuffer BufferFunc
}

// NewDeviceMonitor creates a monitor for ip in the Idle state.
func NewDeviceMonitor(ip string, interval time.Duration, historySize int, prober LivenessProber, logger *logrus.Logger) *DeviceMonitor {
	if logger == nil {
		logger = logrus.New()
	}
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &DeviceMonitor{
		ip:       ip,
		interval: interval,
		prober:   prober,
		logger:   logger,
		history:  NewHistory(historySize),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// IP returns the monitored address.
func (m *DeviceMonitor) IP() string {
	return m.ip
}

// State returns the current lifecycle state.
func (m *DeviceMonitor) State() State {
	return State(m.state.Load())
}

// Start transitions Idle to Running and spawns the polling loop. Starting a
// monitor that is not Idle is a no-op.
func (m *DeviceMonitor) Start(onStatus StatusFunc, onBuffer BufferFunc) {
	if !m.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		return
	}
	m.onStatus = onStatus
	m.onBuffer = onBuffer
	go m.loop()
}

// Stop signals the loop to exit after its current iteration and waits for
// it with a bounded join. Stopping an already-stopped monitor is a no-op.
func (m *DeviceMonitor) Stop() {
	if !m.state.CompareAndSwap(int32(StateRunning), int32(StateStopped)) {
		return
	}
	close(m.stopCh)

	select {
	case <-m.doneCh:
	case <-time.After(stopJoinWait):
		m.logger.Warnf("Monitor for %s did not stop within %s, leaking its loop", m.ip, stopJoinWait)
	}
}

// Snapshot returns the buffered samples in chronological order.
func (m *DeviceMonitor) Snapshot() []models.Sample {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.history.Snapshot()
}

// Stats summarizes the current buffer contents.
func (m *DeviceMonitor) Stats() Stats {
	return Summarize(m.Snapshot())
}

func (m *DeviceMonitor) loop() {
	defer close(m.doneCh)

	for {
		m.tick()

		select {
		case <-m.stopCh:
			return
		case <-time.After(m.interval):
		}
	}
}

// tick probes the device once and publishes the resulting sample. A panic
// inside a tick is logged and the loop continues, so one misbehaving
// address cannot take down the monitoring session.
func (m *DeviceMonitor) tick() {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Errorf("Monitor tick for %s panicked: %v", m.ip, r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), m.interval+stopJoinWait)
	latency, up := m.prober.CheckLiveness(ctx, m.ip)
	cancel()

	// Up requires both a successful probe and a measured latency; anything
	// else is Down with latency left unset.
	if latency <= 0 {
		up = false
		latency = 0
	}

	sample := models.Sample{
		Timestamp: time.Now(),
		Latency:   latency,
		Up:        up,
	}

	m.mu.Lock()
	m.history.Append(sample)
	snapshot := m.history.Snapshot()
	m.mu.Unlock()

	if m.onStatus != nil {
		m.onStatus(m.ip, sample.Latency, sample.Up, sample.Timestamp)
	}
	if m.onBuffer != nil {
		m.onBuffer(m.ip, snapshot)
	}
}
