package discovery

import (
	"bytes"
	"context"
	"net"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/lanwatch/lanwatch/pkg/config"
	"github.com/lanwatch/lanwatch/pkg/models"
)

// AddressProber probes a single candidate address. A (nil, nil) return means
// the address did not answer any liveness step.
type AddressProber interface {
	ProbeAddress(ctx context.Context, ip string) (*models.DeviceRecord, error)
}

// RecordFunc receives each discovered device as its probe completes.
type RecordFunc func(models.DeviceRecord)

// ProgressFunc receives scan progress as an integer percentage from 0 to 100.
type ProgressFunc func(percent int)

// Scanner runs the probe strategy chain over a network range with a bounded
// worker pool.
type Scanner struct {
	cfg       config.Config
	prober    AddressProber
	logger    *logrus.Logger
	cancelled atomic.Bool
}

// NewScanner creates a scanner with the given configuration. A nil prober
// gets the default probe chain.
func NewScanner(cfg config.Config, prober AddressProber, logger *logrus.Logger) *Scanner {
	if logger == nil {
		logger = logrus.New()
	}
	if prober == nil {
		prober = NewProber(cfg, nil, logger)
	}
	return &Scanner{
		cfg:    cfg,
		prober: prober,
		logger: logger,
	}
}

// Stop requests cooperative cancellation. No further probes are dispatched,
// in-flight probes finish but their results are discarded, and Scan returns
// the partial list gathered so far.
func (s *Scanner) Stop() {
	s.cancelled.Store(true)
}

// Scan probes every usable address in the configured range. Discovered
// devices are forwarded to onRecord as they complete and progress is
// reported through onProgress, monotonically, reaching 100 exactly when all
// addresses resolve or the scan is cancelled. The returned list is sorted by
// ascending address for deterministic display.
func (s *Scanner) Scan(ctx context.Context, onRecord RecordFunc, onProgress ProgressFunc) ([]models.DeviceRecord, error) {
	ips, err := ExpandRange(s.cfg.IPRange)
	if err != nil {
		return nil, err
	}

	total := len(ips)
	completed := 0

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		devices []models.DeviceRecord
	)
	semaphore := make(chan struct{}, s.cfg.Threads)

	// The callback fires under the lock so reported percentages can never
	// arrive out of order.
	report := func() {
		mu.Lock()
		defer mu.Unlock()
		completed++
		if onProgress != nil {
			onProgress(completed * 100 / total)
		}
	}

	for _, ip := range ips {
		if s.cancelled.Load() {
			break
		}

		wg.Add(1)
		go func(ip string) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()
			defer report()

			record := s.probeSoft(ctx, ip)
			if record == nil || s.cancelled.Load() {
				return
			}

			mu.Lock()
			devices = append(devices, *record)
			mu.Unlock()

			if onRecord != nil {
				onRecord(*record)
			}
		}(ip)
	}

	wg.Wait()

	if s.cancelled.Load() && onProgress != nil {
		// Skipped addresses never report, so force completion; when every
		// address already resolved the final 100 has fired and must not
		// repeat.
		mu.Lock()
		if completed < total {
			onProgress(100)
		}
		mu.Unlock()
	}

	sortByAddress(devices)
	return devices, nil
}

// probeSoft runs one probe and absorbs both errors and panics so a single
// bad address cannot abort the batch.
func (s *Scanner) probeSoft(ctx context.Context, ip string) (record *models.DeviceRecord) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warnf("Probe for %s panicked: %v", ip, r)
			record = nil
		}
	}()

	record, err := s.prober.ProbeAddress(ctx, ip)
	if err != nil {
		s.logger.Debugf("Probe for %s failed: %v", ip, err)
		return nil
	}
	return record
}

func sortByAddress(devices []models.DeviceRecord) {
	sort.Slice(devices, func(i, j int) bool {
		a := net.ParseIP(devices[i].IP).To16()
		b := net.ParseIP(devices[j].IP).To16()
		return bytes.Compare(a, b) < 0
	})
}
