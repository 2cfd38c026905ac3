package alert

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanwatch/lanwatch/pkg/config"
	"github.com/lanwatch/lanwatch/pkg/models"
)

func testAlertConfig() config.AlertConfig {
	return config.AlertConfig{
		LatencyThreshold:    1000 * time.Millisecond,
		ConsecutiveFailures: 3,
		Cooldown:            5 * time.Minute,
	}
}

// newTestEvaluator returns an evaluator whose clock the test controls.
func newTestEvaluator(cfg config.AlertConfig) (*Evaluator, *time.Time) {
	e := NewEvaluator(cfg, nil)
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return now }
	return e, &now
}

func observeDown(e *Evaluator, ip string) *models.AlertEvent {
	return e.Observe(ip, 0, false, time.Now(), DeviceContext{Hostname: "host", Vendor: "vendor"})
}

func TestThreeConsecutiveFailuresTriggerOneAlert(t *testing.T) {
	e, _ := newTestEvaluator(testAlertConfig())

	assert.Nil(t, observeDown(e, "10.0.0.1"))
	assert.Nil(t, observeDown(e, "10.0.0.1"))

	event := observeDown(e, "10.0.0.1")
	require.NotNil(t, event)
	assert.Equal(t, models.AlertDeviceDown, event.Kind)
	assert.Equal(t, "10.0.0.1", event.IP)
	assert.Equal(t, "host", event.Hostname)

	// A fourth immediate failure is inside the cooldown window.
	assert.Nil(t, observeDown(e, "10.0.0.1"))
	// The counter keeps incrementing through suppressed failures.
	assert.Equal(t, 4, e.FailureCount("10.0.0.1"))
}

func TestCooldownExpiryAllowsNextAlert(t *testing.T) {
	e, now := newTestEvaluator(testAlertConfig())

	for i := 0; i < 3; i++ {
		observeDown(e, "10.0.0.1")
	}
	assert.Nil(t, observeDown(e, "10.0.0.1"))

	*now = now.Add(5*time.Minute + time.Second)
	event := observeDown(e, "10.0.0.1")
	require.NotNil(t, event)
	assert.Equal(t, models.AlertDeviceDown, event.Kind)
}

func TestRecoveryResetsFailureCounter(t *testing.T) {
	e, _ := newTestEvaluator(testAlertConfig())

	observeDown(e, "10.0.0.1")
	observeDown(e, "10.0.0.1")

	// One healthy sample resets the counter to zero...
	assert.Nil(t, e.Observe("10.0.0.1", 20*time.Millisecond, true, time.Now(), DeviceContext{}))
	assert.Zero(t, e.FailureCount("10.0.0.1"))

	// ...so three more failures, not one, are needed for the alert.
	assert.Nil(t, observeDown(e, "10.0.0.1"))
	assert.Nil(t, observeDown(e, "10.0.0.1"))
	assert.NotNil(t, observeDown(e, "10.0.0.1"))
}

func TestHighLatencyAlert(t *testing.T) {
	e, _ := newTestEvaluator(testAlertConfig())

	slow := 1500 * time.Millisecond
	assert.Nil(t, e.Observe("10.0.0.2", slow, true, time.Now(), DeviceContext{}))
	assert.Nil(t, e.Observe("10.0.0.2", slow, true, time.Now(), DeviceContext{}))

	event := e.Observe("10.0.0.2", slow, true, time.Now(), DeviceContext{})
	require.NotNil(t, event)
	assert.Equal(t, models.AlertHighLatency, event.Kind)
	assert.Equal(t, slow, event.Latency)
}

func TestCooldownSharedAcrossAlertKinds(t *testing.T) {
	e, _ := newTestEvaluator(testAlertConfig())

	slow := 2 * time.Second
	for i := 0; i < 3; i++ {
		e.Observe("10.0.0.3", slow, true, time.Now(), DeviceContext{})
	}

	// The latency alert above started the cooldown clock, so a device-down
	// condition for the same address stays suppressed.
	assert.Nil(t, observeDown(e, "10.0.0.3"))
}

func TestAddressesTrackedIndependently(t *testing.T) {
	e, _ := newTestEvaluator(testAlertConfig())

	for i := 0; i < 3; i++ {
		observeDown(e, "10.0.0.4")
	}

	// A different address starts from a clean counter and cooldown.
	assert.Nil(t, observeDown(e, "10.0.0.5"))
	assert.Equal(t, 1, e.FailureCount("10.0.0.5"))
}

func TestMalformedLatencyFoldsIntoFailurePath(t *testing.T) {
	e, _ := newTestEvaluator(testAlertConfig())

	// Up without a measured latency is treated as a failure, not a crash
	// and not a healthy reset.
	assert.Nil(t, e.Observe("10.0.0.6", 0, true, time.Now(), DeviceContext{}))
	assert.Equal(t, 1, e.FailureCount("10.0.0.6"))

	assert.Nil(t, e.Observe("10.0.0.6", -5, true, time.Now(), DeviceContext{}))
	assert.Equal(t, 2, e.FailureCount("10.0.0.6"))
}

func TestForgetClearsState(t *testing.T) {
	e, _ := newTestEvaluator(testAlertConfig())

	observeDown(e, "10.0.0.7")
	e.Forget("10.0.0.7")
	assert.Zero(t, e.FailureCount("10.0.0.7"))
}
