package alert

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lanwatch/lanwatch/pkg/config"
	"github.com/lanwatch/lanwatch/pkg/models"
)

// Sender delivers a composed notification to a list of recipients. The
// transport (SMTP, SMS, webhook) lives outside this package.
type Sender interface {
	Send(subject, body string, recipients []string) error
}

// Dispatcher forwards alert events to the sender, either immediately on a
// background goroutine or folded into periodic batches. Each event is
// delivered at most once.
type Dispatcher struct {
	cfg    config.AlertConfig
	sender Sender
	logger *logrus.Logger

	mu    sync.Mutex
	queue []models.AlertEvent
	timer *time.Timer
}

// NewDispatcher creates a dispatcher in the mode selected by the config.
func NewDispatcher(cfg config.AlertConfig, sender Sender, logger *logrus.Logger) *Dispatcher {
	if logger == nil {
		logger = logrus.New()
	}
	return &Dispatcher{
		cfg:    cfg,
		sender: sender,
		logger: logger,
	}
}

// Dispatch accepts one alert event. In immediate mode it is sent right away
// without blocking the caller; in batched mode it is queued and the batch
// timer is armed if it was not running.
func (d *Dispatcher) Dispatch(event models.AlertEvent) {
	if !d.cfg.BatchAlerts {
		go d.sendOne(event)
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.queue = append(d.queue, event)
	if d.timer == nil {
		d.timer = time.AfterFunc(d.cfg.BatchInterval, d.flushBatch)
	}
}

// Flush drains any queued events immediately, typically at shutdown. It is
// a no-op in immediate mode or when the queue is empty.
func (d *Dispatcher) Flush() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.mu.Unlock()

	d.flushBatch()
}

// flushBatch drains the entire queue atomically into one report and sends
// it. The timer is disarmed so the next enqueue arms a fresh one.
func (d *Dispatcher) flushBatch() {
	d.mu.Lock()
	events := d.queue
	d.queue = nil
	d.timer = nil
	d.mu.Unlock()

	if len(events) == 0 {
		return
	}

	report := models.BatchReport{
		Events:        make(map[string][]models.AlertEvent),
		TotalCount:    len(events),
		BatchInterval: d.cfg.BatchInterval,
	}
	for _, event := range events {
		report.Events[event.IP] = append(report.Events[event.IP], event)
	}

	subject := subjectLine(d.cfg, "Batch Alert")
	body := composeBatchBody(report, d.cfg)
	if err := d.sender.Send(subject, body, d.cfg.Recipients); err != nil {
		// Alert state is not reverted; the cooldown window prevents an
		// immediate duplicate.
		d.logger.Errorf("Failed to deliver batch of %d alerts: %v", report.TotalCount, err)
		return
	}
	d.logger.Infof("Delivered batch of %d alerts for %d devices", report.TotalCount, len(report.Events))
}

func (d *Dispatcher) sendOne(event models.AlertEvent) {
	subject := subjectLine(d.cfg, alertTypeName(event.Kind))
	body := composeAlertBody(event, d.cfg)
	if err := d.sender.Send(subject, body, d.cfg.Recipients); err != nil {
		d.logger.Errorf("Failed to deliver %s alert for %s: %v", event.Kind, event.IP, err)
		return
	}
	d.logger.Infof("Delivered %s alert for %s", event.Kind, event.IP)
}
