package alert

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/lanwatch/lanwatch/pkg/config"
	"github.com/lanwatch/lanwatch/pkg/models"
)

const timeLayout = "2006-01-02 15:04:05"

func alertTypeName(kind models.AlertKind) string {
	switch kind {
	case models.AlertDeviceDown:
		return "Device Down"
	case models.AlertHighLatency:
		return "High Latency"
	default:
		return string(kind)
	}
}

func subjectLine(cfg config.AlertConfig, alertType string) string {
	template := cfg.SubjectTemplate
	if template == "" {
		template = "Network Monitor Alert - %s"
	}
	return fmt.Sprintf(template, alertType)
}

func latencyText(latency time.Duration) string {
	if latency <= 0 {
		return "N/A"
	}
	return fmt.Sprintf("%.2fms", float64(latency)/float64(time.Millisecond))
}

// composeAlertBody renders a single alert into a plain-text notification.
func composeAlertBody(event models.AlertEvent, cfg config.AlertConfig) string {
	alertType := alertTypeName(event.Kind)

	var b strings.Builder
	fmt.Fprintf(&b, "Network Monitor Alert - %s\n\n", alertType)
	b.WriteString("Device Information:\n")
	fmt.Fprintf(&b, "- IP Address: %s\n", event.IP)
	fmt.Fprintf(&b, "- Hostname: %s\n", orUnknown(event.Hostname))
	fmt.Fprintf(&b, "- Vendor: %s\n", orUnknown(event.Vendor))
	if event.MAC != "" {
		fmt.Fprintf(&b, "- MAC Address: %s\n", event.MAC)
	}
	fmt.Fprintf(&b, "- Latency: %s\n", latencyText(event.Latency))
	fmt.Fprintf(&b, "- Alert Time: %s\n\n", event.Timestamp.Format(timeLayout))

	b.WriteString("Alert Details:\n")
	if event.Kind == models.AlertDeviceDown {
		b.WriteString("- Device is not responding to probes\n")
	} else {
		fmt.Fprintf(&b, "- Latency (%s) exceeds threshold (%s)\n",
			latencyText(event.Latency), latencyText(cfg.LatencyThreshold))
	}

	writeConfigFooter(&b, cfg)
	return b.String()
}

// composeBatchBody renders a drained batch, grouped by device, into one
// plain-text notification.
func composeBatchBody(report models.BatchReport, cfg config.AlertConfig) string {
	var b strings.Builder
	b.WriteString("Network Monitor - Batch Alert Report\n\n")
	fmt.Fprintf(&b, "This batch contains alerts collected over the last %s.\n\n", report.BatchInterval)
	b.WriteString("Alert Summary:\n")

	ips := make([]string, 0, len(report.Events))
	for ip := range report.Events {
		ips = append(ips, ip)
	}
	sort.Strings(ips)

	for _, ip := range ips {
		events := report.Events[ip]
		latest := events[len(events)-1]

		fmt.Fprintf(&b, "\nDevice: %s (%s)\n", ip, orUnknown(latest.Hostname))
		fmt.Fprintf(&b, "- Vendor: %s\n", orUnknown(latest.Vendor))
		fmt.Fprintf(&b, "- Alert Count: %d\n", len(events))
		fmt.Fprintf(&b, "- Latest Alert: %s\n", alertTypeName(latest.Kind))
		fmt.Fprintf(&b, "- Latest Latency: %s\n", latencyText(latest.Latency))
		fmt.Fprintf(&b, "- Last Alert Time: %s\n", latest.Timestamp.Format(timeLayout))
	}

	fmt.Fprintf(&b, "\nTotal Alerts: %d\n", report.TotalCount)

	writeConfigFooter(&b, cfg)
	return b.String()
}

func writeConfigFooter(b *strings.Builder, cfg config.AlertConfig) {
	b.WriteString("\nConfiguration:\n")
	fmt.Fprintf(b, "- Latency Threshold: %s\n", latencyText(cfg.LatencyThreshold))
	fmt.Fprintf(b, "- Consecutive Failures Required: %d\n", cfg.ConsecutiveFailures)
	fmt.Fprintf(b, "- Cooldown Period: %s\n", cfg.Cooldown)
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
