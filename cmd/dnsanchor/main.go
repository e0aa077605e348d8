// dnsanchor pins a DNS A record to the host's current IPv4 address using
// an RFC 2136 dynamic update signed with TSIG. One invocation performs
// one update; scheduling (cron, a systemd timer, a network-change hook)
// is external. The exit status distinguishes failure classes so the
// scheduler can tell transient failures from permanent ones.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"

	"gitlab.bluewillows.net/root/dnsanchor/internal/config"
	"gitlab.bluewillows.net/root/dnsanchor/internal/metrics"
	"gitlab.bluewillows.net/root/dnsanchor/internal/updater"
)

// Version and BuildDate are set via ldflags during build.
// Example: -ldflags="-X main.Version=v1.0.0 -X main.BuildDate=2026-08-30"
var (
	Version   = "dev"
	BuildDate = "unknown"
)

// Exit code for configuration errors, raised before the pipeline runs.
const exitConfig = 1

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("dnsanchor", flag.ContinueOnError)

	configPath := fs.String("config", "config.toml", "path to the config file")
	showVersion := fs.Bool("version", false, "print version and exit")

	nameServer := fs.String("name-server", "", "DNS server address")
	port := fs.Int("port", config.DefaultPort, "DNS server port")
	zone := fs.String("zone", "", "DNS zone to update")
	hostname := fs.String("hostname", "", "owner name of the A record")
	ttl := fs.Uint("ttl", config.DefaultTTL, "record TTL in seconds")
	timeout := fs.Int("timeout", config.DefaultTimeout, "exchange timeout in seconds")
	protocol := fs.String("protocol", config.DefaultProtocol, "preferred transport (udp or tcp)")
	ifaceName := fs.String("interface", "", "network interface to take the address from")
	logLevel := fs.String("log-level", config.DefaultLogLevel, "log level (debug, info, warn, error)")
	logFormat := fs.String("log-format", config.DefaultLogFormat, "log format (text or json)")
	logFile := fs.String("log-file", "", "also write logs to this file")
	metricsFile := fs.String("metrics-file", "", "write run metrics to this textfile-collector file")
	tsigName := fs.String("tsig-name", "", "TSIG key name")
	tsigAlgorithm := fs.String("tsig-algorithm", "", "TSIG algorithm (hmac-sha1 through hmac-sha512)")
	tsigSecret := fs.String("tsig-secret", "", "TSIG secret (base64)")

	if err := fs.Parse(args); err != nil {
		return exitConfig
	}

	if *showVersion {
		fmt.Printf("dnsanchor %s (built %s, %s)\n", Version, BuildDate, runtime.Version())
		return 0
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("loading configuration", slog.String("error", err.Error()))
		return exitConfig
	}

	// Flags override file and environment values, but only the flags the
	// user actually set.
	var o config.Overrides
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "name-server":
			o.NameServer = nameServer
		case "port":
			o.Port = port
		case "zone":
			o.Zone = zone
		case "hostname":
			o.Hostname = hostname
		case "ttl":
			o.TTL = ttl
		case "timeout":
			o.Timeout = timeout
		case "protocol":
			o.Protocol = protocol
		case "interface":
			o.Interface = ifaceName
		case "log-level":
			o.LogLevel = logLevel
		case "log-format":
			o.LogFormat = logFormat
		case "log-file":
			o.LogFile = logFile
		case "metrics-file":
			o.MetricsFile = metricsFile
		case "tsig-name":
			o.TSIGName = tsigName
		case "tsig-algorithm":
			o.TSIGAlgorithm = tsigAlgorithm
		case "tsig-secret":
			o.TSIGSecret = tsigSecret
		}
	})
	cfg.Apply(o)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		return exitConfig
	}
	cfg.Normalize()

	logger, closeLog, err := setupLogger(cfg.LogLevel, cfg.LogFormat, cfg.LogFile)
	if err != nil {
		slog.Error("setting up logging", slog.String("error", err.Error()))
		return exitConfig
	}
	defer closeLog()
	slog.SetDefault(logger)

	metrics.SetBuildInfo(Version, runtime.Version())

	logger.Debug("dnsanchor starting",
		slog.String("version", Version),
		slog.String("build_date", BuildDate),
		slog.String("go_version", runtime.Version()),
	)

	u := updater.New(cfg, updater.WithLogger(logger))
	result := u.Run(context.Background())

	if cfg.MetricsFile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
			logger.Warn("writing metrics file",
				slog.String("path", cfg.MetricsFile),
				slog.String("error", err.Error()),
			)
		}
	}

	return result.Kind.ExitCode()
}

func setupLogger(level, format, file string) (*slog.Logger, func(), error) {
	var w io.Writer = os.Stdout
	closeLog := func() {}

	if file != "" {
		f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		w = io.MultiWriter(os.Stdout, f)
		closeLog = func() { f.Close() }
	}

	opts := &slog.HandlerOptions{Level: parseLogLevel(level)}
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler), closeLog, nil
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
