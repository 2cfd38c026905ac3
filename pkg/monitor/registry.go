package monitor

import (
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
)

// Registry owns the set of running monitors, one per address, so shutdown
// is deterministic instead of relying on process-exit cleanup.
type Registry struct {
	mu       sync.Mutex
	monitors map[string]*DeviceMonitor
	logger   *logrus.Logger
}

// NewRegistry creates an empty monitor registry.
func NewRegistry(logger *logrus.Logger) *Registry {
	if logger == nil {
		logger = logrus.New()
	}
	return &Registry{
		monitors: make(map[string]*DeviceMonitor),
		logger:   logger,
	}
}

// Add registers and starts a monitor. An address that is already being
// monitored keeps its existing monitor.
func (r *Registry) Add(m *DeviceMonitor, onStatus StatusFunc, onBuffer BufferFunc) bool {
	r.mu.Lock()
	if _, exists := r.monitors[m.IP()]; exists {
		r.mu.Unlock()
		return false
	}
	r.monitors[m.IP()] = m
	r.mu.Unlock()

	m.Start(onStatus, onBuffer)
	r.logger.Infof("Started monitoring %s", m.IP())
	return true
}

// Get returns the monitor for an address, if one is registered.
func (r *Registry) Get(ip string) (*DeviceMonitor, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.monitors[ip]
	return m, ok
}

// IPs returns the monitored addresses in sorted order.
func (r *Registry) IPs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ips := make([]string, 0, len(r.monitors))
	for ip := range r.monitors {
		ips = append(ips, ip)
	}
	sort.Strings(ips)
	return ips
}

// Stop halts and removes the monitor for one address.
func (r *Registry) Stop(ip string) {
	r.mu.Lock()
	m, ok := r.monitors[ip]
	delete(r.monitors, ip)
	r.mu.Unlock()

	if ok {
		m.Stop()
		r.logger.Infof("Stopped monitoring %s", ip)
	}
}

// StopAll halts every registered monitor and empties the registry.
func (r *Registry) StopAll() {
	r.mu.Lock()
	monitors := r.monitors
	r.monitors = make(map[string]*DeviceMonitor)
	r.mu.Unlock()

	for _, m := range monitors {
		m.Stop()
	}
	if len(monitors) > 0 {
		r.logger.Infof("Stopped %d monitors", len(monitors))
	}
}
