package telemetry

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestInitIdempotent(t *testing.T) {
	Init()
	first := ProbesTotal
	Init()
	if ProbesTotal != first {
		t.Error("Init re-created ProbesTotal")
	}
	if ProbeDuration == nil || HTTPRequests == nil || LastProbeSuccess == nil {
		t.Error("metrics not initialized")
	}
}

func TestRecordProbe(t *testing.T) {
	Init()
	okBefore := testutil.ToFloat64(ProbesTotal.WithLabelValues(OutcomeSuccess))
	failBefore := testutil.ToFloat64(ProbesTotal.WithLabelValues(OutcomeFailure))

	RecordProbe(true, 20*time.Millisecond)
	if got := testutil.ToFloat64(LastProbeSuccess); got != 1 {
		t.Errorf("LastProbeSuccess = %v, want 1", got)
	}
	RecordProbe(false, 5*time.Millisecond)
	if got := testutil.ToFloat64(LastProbeSuccess); got != 0 {
		t.Errorf("LastProbeSuccess = %v, want 0", got)
	}

	if got := testutil.ToFloat64(ProbesTotal.WithLabelValues(OutcomeSuccess)) - okBefore; got != 1 {
		t.Errorf("success delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(ProbesTotal.WithLabelValues(OutcomeFailure)) - failBefore; got != 1 {
		t.Errorf("failure delta = %v, want 1", got)
	}
}

func TestRecordMount(t *testing.T) {
	Init()
	RecordMount(true, 2*time.Millisecond, time.Millisecond)
	if got := testutil.ToFloat64(NFSMounted); got != 1 {
		t.Errorf("NFSMounted = %v, want 1", got)
	}
	if got := testutil.ToFloat64(NFSLatency.WithLabelValues("write")); got != 0.002 {
		t.Errorf("write latency = %v, want 0.002", got)
	}

	RecordMount(false, 0, 0)
	if got := testutil.ToFloat64(NFSMounted); got != 0 {
		t.Errorf("NFSMounted = %v, want 0", got)
	}
	if got := testutil.ToFloat64(NFSLatency.WithLabelValues("read")); got != 0 {
		t.Errorf("read latency = %v, want 0 after an unmounted sample", got)
	}
}

func TestCorrelation(t *testing.T) {
	ctx := context.Background()
	if GetCorrelation(ctx) != "" {
		t.Error("expected empty correlation on bare context")
	}
	ctx = WithCorrelation(ctx, "abc-123")
	if got := GetCorrelation(ctx); got != "abc-123" {
		t.Errorf("GetCorrelation = %q", got)
	}

	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	LoggerWithCorr(ctx).Info("hello")
	if !strings.Contains(buf.String(), "corr=abc-123") {
		t.Errorf("log line missing corr: %q", buf.String())
	}
}
