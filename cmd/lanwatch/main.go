package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/lanwatch/lanwatch/pkg/alert"
	"github.com/lanwatch/lanwatch/pkg/api"
	"github.com/lanwatch/lanwatch/pkg/config"
	"github.com/lanwatch/lanwatch/pkg/discovery"
	"github.com/lanwatch/lanwatch/pkg/fingerprint"
	"github.com/lanwatch/lanwatch/pkg/models"
	"github.com/lanwatch/lanwatch/pkg/monitor"
)

const (
	appName    = "lanwatch"
	appVersion = "1.0.0"
)

var log = logrus.New()

func main() {
	app := &cli.App{
		Name:    appName,
		Usage:   "LAN device discovery, live monitoring and threshold alerts",
		Version: appVersion,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Load configuration from `FILE`",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"LANWATCH_LOG_LEVEL"},
			},
		},
		Before: func(c *cli.Context) error {
			level, err := logrus.ParseLevel(c.String("log-level"))
			if err != nil {
				level = logrus.InfoLevel
			}
			log.SetLevel(level)
			log.SetFormatter(&logrus.TextFormatter{
				FullTimestamp:   true,
				TimestampFormat: "2006-01-02 15:04:05",
			})
			return nil
		},
		Commands: []*cli.Command{
			commandScan(),
			commandMonitor(),
			commandDashboard(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// loadConfig builds the effective configuration from the optional config
// file plus the flags shared by all commands.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg := config.DefaultConfig()

	if path := c.String("config"); path != "" {
		loaded, err := config.LoadConfigFromFile(path)
		if err != nil {
			return cfg, fmt.Errorf("load config %s: %w", path, err)
		}
		cfg = loaded
	}

	if c.IsSet("range") {
		cfg.IPRange = c.String("range")
	}
	if c.IsSet("threads") {
		cfg.Threads = c.Int("threads")
	}

	return cfg, cfg.Validate()
}

func newVendorDB(c *cli.Context) *fingerprint.VendorDB {
	vendors := fingerprint.NewVendorDB(log)
	if path := c.String("oui-file"); path != "" {
		if err := vendors.LoadFile(path); err != nil {
			log.Warnf("Failed to load OUI file %s: %v", path, err)
		}
	}
	return vendors
}

func commandScan() *cli.Command {
	return &cli.Command{
		Name:    "scan",
		Aliases: []string{"s"},
		Usage:   "Run one discovery pass over the network range",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "range",
				Aliases: []string{"r"},
				Value:   "192.168.1.0/24",
				Usage:   "IP range to scan in CIDR notation",
			},
			&cli.IntFlag{
				Name:    "threads",
				Aliases: []string{"t"},
				Value:   64,
				Usage:   "Number of concurrent scanning workers",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write scan results to `FILE` as JSON",
			},
			&cli.StringFlag{
				Name:  "oui-file",
				Usage: "Load additional MAC vendor entries from `FILE`",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}

			devices, err := runScan(c.Context, cfg, newVendorDB(c))
			if err != nil {
				return err
			}

			displaySummary(devices)

			if output := c.String("output"); output != "" {
				if err := config.WriteResultsToFile(devices, output); err != nil {
					return fmt.Errorf("write results: %w", err)
				}
				log.Infof("Results written to %s", output)
			}
			return nil
		},
	}
}

func commandMonitor() *cli.Command {
	return &cli.Command{
		Name:    "monitor",
		Aliases: []string{"m"},
		Usage:   "Scan, then continuously monitor devices and raise alerts",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "range",
				Aliases: []string{"r"},
				Value:   "192.168.1.0/24",
				Usage:   "IP range to scan in CIDR notation",
			},
			&cli.IntFlag{
				Name:    "threads",
				Aliases: []string{"t"},
				Value:   64,
				Usage:   "Number of concurrent scanning workers",
			},
			&cli.StringSliceFlag{
				Name:  "select",
				Usage: "Monitor only these addresses (default: every discovered device)",
			},
			&cli.DurationFlag{
				Name:    "interval",
				Aliases: []string{"i"},
				Value:   2 * time.Second,
				Usage:   "Delay between monitoring probes",
			},
			&cli.DurationFlag{
				Name:  "latency-threshold",
				Value: time.Second,
				Usage: "Latency above this value counts as a failure",
			},
			&cli.IntFlag{
				Name:  "failures",
				Value: 3,
				Usage: "Consecutive failures required before alerting",
			},
			&cli.DurationFlag{
				Name:  "cooldown",
				Value: 5 * time.Minute,
				Usage: "Minimum gap between alerts for the same device",
			},
			&cli.BoolFlag{
				Name:  "batch",
				Usage: "Queue alerts and deliver them in periodic batches",
			},
			&cli.DurationFlag{
				Name:  "batch-interval",
				Value: 15 * time.Minute,
				Usage: "How long a batch accumulates before delivery",
			},
			&cli.StringFlag{
				Name:  "oui-file",
				Usage: "Load additional MAC vendor entries from `FILE`",
			},
		},
		Action: runMonitorCommand,
	}
}

func runMonitorCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	if c.IsSet("interval") {
		cfg.MonitorInterval = c.Duration("interval")
	}
	if c.IsSet("latency-threshold") {
		cfg.Alerts.LatencyThreshold = c.Duration("latency-threshold")
	}
	if c.IsSet("failures") {
		cfg.Alerts.ConsecutiveFailures = c.Int("failures")
	}
	if c.IsSet("cooldown") {
		cfg.Alerts.Cooldown = c.Duration("cooldown")
	}
	if c.Bool("batch") {
		cfg.Alerts.BatchAlerts = true
	}
	if c.IsSet("batch-interval") {
		cfg.Alerts.BatchInterval = c.Duration("batch-interval")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	vendors := newVendorDB(c)
	devices, err := runScan(c.Context, cfg, vendors)
	if err != nil {
		return err
	}
	displaySummary(devices)

	targets := selectTargets(devices, c.StringSlice("select"))
	if len(targets) == 0 {
		return fmt.Errorf("no devices selected for monitoring")
	}

	prober := discovery.NewProber(cfg, vendors, log)
	evaluator := alert.NewEvaluator(cfg.Alerts, log)
	dispatcher := alert.NewDispatcher(cfg.Alerts, alert.LogSender{Logger: log}, log)
	registry := monitor.NewRegistry(log)

	for _, device := range targets {
		device := device
		onStatus := func(ip string, latency time.Duration, up bool, ts time.Time) {
			event := evaluator.Observe(ip, latency, up, ts, alert.DeviceContext{
				Hostname: device.Hostname,
				Vendor:   device.Vendor,
				MAC:      device.MAC,
			})
			if event != nil {
				dispatcher.Dispatch(*event)
			}
		}

		m := monitor.NewDeviceMonitor(device.IP, cfg.MonitorInterval, cfg.HistorySize, prober, log)
		registry.Add(m, onStatus, nil)
	}

	log.Infof("Monitoring %d devices, press Ctrl+C to stop", len(targets))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("Shutting down...")
	registry.StopAll()
	dispatcher.Flush()
	return nil
}

func commandDashboard() *cli.Command {
	return &cli.Command{
		Name:    "dashboard",
		Aliases: []string{"d"},
		Usage:   "Serve scan results and scan control over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "range",
				Aliases: []string{"r"},
				Value:   "192.168.1.0/24",
				Usage:   "IP range scans started via the API will cover",
			},
			&cli.IntFlag{
				Name:    "threads",
				Aliases: []string{"t"},
				Value:   64,
				Usage:   "Number of concurrent scanning workers",
			},
			&cli.StringFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Value:   "8080",
				Usage:   "Port to serve the API on",
			},
			&cli.StringFlag{
				Name:  "results",
				Usage: "Preload scan results from `FILE`",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}

			server := api.NewServer(cfg, api.ServerConfig{
				Port:       c.String("port"),
				EnableCORS: true,
			}, nil, log)

			if path := c.String("results"); path != "" {
				devices, err := loadScanResults(path)
				if err != nil {
					log.Warnf("Failed to load scan results from %s: %v", path, err)
				} else {
					server.SetDevices(devices)
					log.Infof("Loaded %d devices from %s", len(devices), path)
				}
			}

			color.Green("API running at http://localhost:%s", c.String("port"))
			return server.Start()
		},
	}
}

// runScan performs one scan pass with live progress logging.
func runScan(ctx context.Context, cfg config.Config, vendors *fingerprint.VendorDB) ([]models.DeviceRecord, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	prober := discovery.NewProber(cfg, vendors, log)
	scanner := discovery.NewScanner(cfg, prober, log)

	log.Infof("Scanning %s with %d workers...", cfg.IPRange, cfg.Threads)

	lastReported := -1
	devices, err := scanner.Scan(ctx,
		func(record models.DeviceRecord) {
			log.Infof("Found %s (%s, %s)", record.IP, record.Hostname, record.Vendor)
		},
		func(percent int) {
			if percent/10 > lastReported/10 {
				lastReported = percent
				log.Debugf("Scan progress: %d%%", percent)
			}
		},
	)
	if err != nil {
		return nil, err
	}

	log.Infof("Scan finished, %d devices online", len(devices))
	return devices, nil
}

// selectTargets filters scan results down to the requested addresses, or
// returns all of them when no selection was given.
func selectTargets(devices []models.DeviceRecord, selected []string) []models.DeviceRecord {
	if len(selected) == 0 {
		return devices
	}

	want := make(map[string]bool, len(selected))
	for _, ip := range selected {
		want[ip] = true
	}

	var targets []models.DeviceRecord
	for _, device := range devices {
		if want[device.IP] {
			targets = append(targets, device)
		}
	}
	return targets
}

func loadScanResults(path string) ([]models.DeviceRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var devices []models.DeviceRecord
	err = json.Unmarshal(data, &devices)
	return devices, err
}

func displaySummary(devices []models.DeviceRecord) {
	fmt.Println("\n=== Scan Summary ===")
	fmt.Printf("Total devices online: %d\n", len(devices))

	for _, device := range devices {
		latency := "n/a"
		if device.HasLatency() {
			latency = fmt.Sprintf("%.1fms", float64(device.Latency)/float64(time.Millisecond))
		}

		line := fmt.Sprintf("  %-15s  %-17s  %-20s  %s", device.IP, device.MAC, device.Vendor, latency)
		if device.WebService != "" {
			line += "  " + device.WebService
		}

		if device.Status == models.StatusOnline {
			color.Green(line)
		} else {
			color.Red(line)
		}
	}
	fmt.Println()
}
