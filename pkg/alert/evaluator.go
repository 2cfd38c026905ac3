package alert

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lanwatch/lanwatch/pkg/config"
	"github.com/lanwatch/lanwatch/pkg/models"
)

// DeviceContext carries the enrichment fields from a scan record into the
// alert events raised for that address.
type DeviceContext struct {
	Hostname string
	Vendor   string
	MAC      string
}

// deviceState tracks alerting progress for one address. The failure counter
// increments only while a qualifying condition holds and resets only on a
// full in-threshold recovery; the cooldown clock is shared by both alert
// kinds for the same address.
type deviceState struct {
	failures  int
	lastAlert time.Time
}

// Evaluator inspects monitoring samples against the configured thresholds
// and decides when an alert event should be raised.
type Evaluator struct {
	cfg    config.AlertConfig
	logger *logrus.Logger

	mu     sync.Mutex
	states map[string]*deviceState

	now func() time.Time
}

// NewEvaluator creates an evaluator with no per-device state.
func NewEvaluator(cfg config.AlertConfig, logger *logrus.Logger) *Evaluator {
	if logger == nil {
		logger = logrus.New()
	}
	return &Evaluator{
		cfg:    cfg,
		logger: logger,
		states: make(map[string]*deviceState),
		now:    time.Now,
	}
}

// Observe evaluates one sample. It returns an AlertEvent when the
// consecutive-failure threshold has been reached and the per-address
// cooldown window has passed, and nil otherwise. Malformed latencies are
// folded into the failure path rather than raised.
func (e *Evaluator) Observe(ip string, latency time.Duration, up bool, timestamp time.Time, dev DeviceContext) *models.AlertEvent {
	// A probe that claims Up without a measured latency is not trustworthy.
	if up && latency <= 0 {
		up = false
		latency = 0
	}

	kind, tripped := e.classify(latency, up)

	e.mu.Lock()
	defer e.mu.Unlock()

	state, ok := e.states[ip]
	if !ok {
		state = &deviceState{}
		e.states[ip] = state
	}

	if !tripped {
		state.failures = 0
		return nil
	}

	state.failures++
	e.logger.Debugf("Device %s failure count: %d/%d", ip, state.failures, e.cfg.ConsecutiveFailures)

	if state.failures < e.cfg.ConsecutiveFailures {
		return nil
	}

	now := e.now()
	if !state.lastAlert.IsZero() && now.Sub(state.lastAlert) <= e.cfg.Cooldown {
		e.logger.Debugf("Cooldown active for %s, suppressing %s alert", ip, kind)
		return nil
	}
	state.lastAlert = now

	return &models.AlertEvent{
		IP:        ip,
		Kind:      kind,
		Latency:   latency,
		Hostname:  dev.Hostname,
		Vendor:    dev.Vendor,
		MAC:       dev.MAC,
		Timestamp: timestamp,
	}
}

// classify decides whether a sample trips the device-down or high-latency
// condition.
func (e *Evaluator) classify(latency time.Duration, up bool) (models.AlertKind, bool) {
	if !up {
		return models.AlertDeviceDown, true
	}
	if latency > e.cfg.LatencyThreshold {
		return models.AlertHighLatency, true
	}
	return "", false
}

// FailureCount returns the current consecutive-failure counter for an
// address. Exposed for observability.
func (e *Evaluator) FailureCount(ip string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if state, ok := e.states[ip]; ok {
		return state.failures
	}
	return 0
}

// Forget discards the tracked state for an address, typically when its
// monitor stops.
func (e *Evaluator) Forget(ip string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.states, ip)
}
