// Package metrics exposes Prometheus metrics for update runs. The
// process is one-shot, so instead of serving an endpoint the collected
// metrics are written in textfile-collector format for node_exporter to
// pick up.
package metrics

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"
)

// Namespace prefixes every metric name.
const Namespace = "ddns"

var (
	registry = prometheus.NewRegistry()
	factory  = promauto.With(registry)

	// BuildInfo carries the version labels, always set to 1.
	BuildInfo = factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "build_info",
		Help:      "Build information for the dnsanchor binary.",
	}, []string{"version", "go_version"})

	// UpdatesTotal counts update runs by outcome kind.
	UpdatesTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "updates_total",
		Help:      "Update runs by outcome.",
	}, []string{"outcome"})

	// UpdateDuration observes how long the update pipeline took.
	UpdateDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "update_duration_seconds",
		Help:      "Duration of the update pipeline.",
		Buckets:   prometheus.DefBuckets,
	})

	// LastSuccessTimestamp holds the unix time of the last successful run.
	LastSuccessTimestamp = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix timestamp of the last successful update.",
	})
)

// SetBuildInfo records the build version labels.
func SetBuildInfo(version, goVersion string) {
	BuildInfo.WithLabelValues(version, goVersion).Set(1)
}

// ObserveRun records one completed update run.
func ObserveRun(outcome string, duration time.Duration, success bool) {
	UpdatesTotal.WithLabelValues(outcome).Inc()
	UpdateDuration.Observe(duration.Seconds())
	if success {
		LastSuccessTimestamp.SetToCurrentTime()
	}
}

// WriteTextfile renders the registry in exposition format and atomically
// replaces path, following the node_exporter textfile collector
// convention (write a temp file, then rename).
func WriteTextfile(path string) error {
	mfs, err := registry.Gather()
	if err != nil {
		return fmt.Errorf("gathering metrics: %w", err)
	}

	var buf bytes.Buffer
	enc := expfmt.NewEncoder(&buf, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range mfs {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("encoding metrics: %w", err)
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("writing metrics file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("writing metrics file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing metrics file: %w", err)
	}

	return os.Rename(tmp.Name(), path)
}
