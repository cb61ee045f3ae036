// Package telemetry provides Prometheus metrics and correlation-id aware logging helpers.
package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Probe outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

var (
	once sync.Once

	// Counters
	ProbesTotal  *prometheus.CounterVec // label: outcome
	HTTPRequests *prometheus.CounterVec // labels: route, code

	// Histograms (seconds)
	ProbeDuration prometheus.Observer

	// Gauges
	LastProbeSuccess prometheus.Gauge     // 1=last probe reached the database, 0=it did not
	NFSMounted       prometheus.Gauge     // 1=nfs share mounted at NFS_MOUNT_PATH
	NFSLatency       *prometheus.GaugeVec // label: op (write|read), seconds
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		ProbesTotal = promauto.NewCounterVec(prometheus.CounterOpts{Name: "nodecheck_probes_total", Help: "Database probes by outcome"}, []string{"outcome"})
		HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{Name: "nodecheck_http_requests_total", Help: "HTTP requests by route and status code"}, []string{"route", "code"})
		ProbeDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "nodecheck_probe_duration_seconds", Help: "Connect + query duration seconds", Buckets: prometheus.DefBuckets})
		LastProbeSuccess = promauto.NewGauge(prometheus.GaugeOpts{Name: "nodecheck_last_probe_success", Help: "Whether the most recent probe succeeded (1) or failed (0)"})
		NFSMounted = promauto.NewGauge(prometheus.GaugeOpts{Name: "nodecheck_nfs_mounted", Help: "Whether an NFS share is mounted at the configured path (1) or not (0)"})
		NFSLatency = promauto.NewGaugeVec(prometheus.GaugeOpts{Name: "nodecheck_nfs_latency_seconds", Help: "Duration of the last 4KB test write/read on the NFS share"}, []string{"op"})
	})
}

// RecordProbe counts one probe and updates the last-result gauge. Safe before Init (no-op).
func RecordProbe(ok bool, d time.Duration) {
	if ProbesTotal == nil {
		return
	}
	outcome := OutcomeFailure
	if ok {
		outcome = OutcomeSuccess
		LastProbeSuccess.Set(1)
	} else {
		LastProbeSuccess.Set(0)
	}
	ProbesTotal.WithLabelValues(outcome).Inc()
	ProbeDuration.Observe(d.Seconds())
}

// RecordMount publishes one NFS share sample. Latencies are reset to zero when the
// share was not timed. Safe before Init (no-op).
func RecordMount(mounted bool, write, read time.Duration) {
	if NFSMounted == nil {
		return
	}
	if mounted {
		NFSMounted.Set(1)
	} else {
		NFSMounted.Set(0)
	}
	NFSLatency.WithLabelValues("write").Set(write.Seconds())
	NFSLatency.WithLabelValues("read").Set(read.Seconds())
}

// Correlation ID helpers ----------------------------------------------------
type corrKeyType struct{}

var corrKey corrKeyType

// WithCorrelation returns a new context embedding the correlation id.
func WithCorrelation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, corrKey, id)
}

// GetCorrelation returns correlation id or empty string.
func GetCorrelation(ctx context.Context) string {
	if s, ok := ctx.Value(corrKey).(string); ok {
		return s
	}
	return ""
}

// LoggerWithCorr returns a logger with corr attribute if present.
func LoggerWithCorr(ctx context.Context) *slog.Logger {
	if id := GetCorrelation(ctx); id != "" {
		return slog.Default().With(slog.String("corr", id))
	}
	return slog.Default()
}
