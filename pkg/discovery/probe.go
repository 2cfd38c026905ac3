package discovery

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lanwatch/lanwatch/pkg/config"
	"github.com/lanwatch/lanwatch/pkg/fingerprint"
	"github.com/lanwatch/lanwatch/pkg/models"
)

// Prober runs the per-address probe strategy chain: layer-2 discovery,
// fallback ping, then best-effort enrichment. Every step is bounded by its
// own timeout and no step's failure is fatal to the others.
type Prober struct {
	cfg     config.Config
	vendors *fingerprint.VendorDB
	logger  *logrus.Logger
}

// NewProber creates a prober with the given configuration and vendor database.
func NewProber(cfg config.Config, vendors *fingerprint.VendorDB, logger *logrus.Logger) *Prober {
	if logger == nil {
		logger = logrus.New()
	}
	if vendors == nil {
		vendors = fingerprint.NewVendorDB(logger)
	}
	return &Prober{
		cfg:     cfg,
		vendors: vendors,
		logger:  logger,
	}
}

// ProbeAddress runs the full chain against one candidate address. It returns
// a best-effort DeviceRecord for a reachable host, or (nil, nil) when every
// liveness step fails.
func (p *Prober) ProbeAddress(ctx context.Context, ip string) (*models.DeviceRecord, error) {
	record := &models.DeviceRecord{
		IP:       ip,
		Hostname: "Unknown",
		Vendor:   fingerprint.UnknownVendor,
		Status:   models.StatusOnline,
	}

	mac, rtt, err := arpProbe(ip, p.cfg.ArpTimeout)
	if err == nil {
		record.MAC = fingerprint.NormalizeMAC(mac)
		record.Latency = clampLatency(rtt)
	} else {
		p.logger.Debugf("ARP probe for %s: %v", ip, err)

		rtt, alive := pingHost(ctx, ip, p.cfg.PingTimeout)
		if !alive {
			return nil, nil
		}
		record.Latency = rtt
	}

	record.LastSeen = time.Now()

	// Hardware-address backfill from the neighbor table
	if record.MAC == "" {
		lookupCtx, cancel := context.WithTimeout(ctx, p.cfg.LookupTimeout)
		if mac, err := arpTableLookup(lookupCtx, ip); err == nil {
			record.MAC = fingerprint.NormalizeMAC(mac)
		}
		cancel()
	}

	if record.MAC != "" {
		record.Vendor = p.vendors.LookupVendor(record.MAC)
	}
	record.Hostname = p.lookupHostname(ctx, ip)
	record.WebService = p.checkWebService(ctx, ip)

	return record, nil
}

// CheckLiveness runs only the liveness portion of the chain (layer-2
// discovery, then fallback ping). Monitoring ticks use this so enrichment
// is not repeated every interval.
func (p *Prober) CheckLiveness(ctx context.Context, ip string) (time.Duration, bool) {
	if _, rtt, err := arpProbe(ip, p.cfg.ArpTimeout); err == nil {
		return clampLatency(rtt), true
	}
	return pingHost(ctx, ip, p.cfg.PingTimeout)
}

// lookupHostname attempts reverse resolution with a short timeout.
func (p *Prober) lookupHostname(ctx context.Context, ip string) string {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.LookupTimeout)
	defer cancel()

	names, err := net.DefaultResolver.LookupAddr(ctx, ip)
	if err != nil || len(names) == 0 {
		return "Unknown"
	}
	return strings.TrimSuffix(names[0], ".")
}

// checkWebService probes the well-known web ports and synthesizes an
// endpoint URL for the first one that accepts a connection.
func (p *Prober) checkWebService(ctx context.Context, ip string) string {
	ports := []struct {
		port   int
		scheme string
	}{
		{80, "http"},
		{443, "https"},
	}

	var dialer net.Dialer
	for _, candidate := range ports {
		dialCtx, cancel := context.WithTimeout(ctx, p.cfg.ServiceTimeout)
		conn, err := dialer.DialContext(dialCtx, "tcp", fmt.Sprintf("%s:%d", ip, candidate.port))
		cancel()
		if err != nil {
			continue
		}
		conn.Close()
		return fmt.Sprintf("%s://%s", candidate.scheme, ip)
	}
	return ""
}
