package server

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/onnwee/nodecheck/db"
	"github.com/onnwee/nodecheck/node"
	"github.com/onnwee/nodecheck/telemetry"
	"github.com/onnwee/nodecheck/testutil"
)

// recordSpans installs a recording tracer provider for the duration of the test.
func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return rec
}

func findSpan(t *testing.T, rec *tracetest.SpanRecorder, name string) sdktrace.ReadOnlySpan {
	t.Helper()
	for _, s := range rec.Ended() {
		if s.Name() == name {
			return s
		}
	}
	t.Fatalf("no ended span named %q", name)
	return nil
}

func stageAttr(s sdktrace.ReadOnlySpan) string {
	for _, kv := range s.Attributes() {
		if kv.Key == telemetry.AttrStage {
			return kv.Value.AsString()
		}
	}
	return ""
}

func TestDatabaseSpanRecordsOutcome(t *testing.T) {
	connectErr := &db.ProbeError{Stage: db.StageConnect, Err: errors.New("dial tcp 10.0.0.5:3306: connect: connection refused")}
	tests := []struct {
		name      string
		path      string
		src       *testutil.StubSource
		wantCode  codes.Code
		wantStage string
	}{
		{"status page ok", "/", &testutil.StubSource{Users: []db.UserRecord{{ID: 1}}}, codes.Ok, ""},
		{"status page connect failure", "/", &testutil.StubSource{Err: connectErr}, codes.Error, "connect"},
		{"readyz ok", "/readyz", &testutil.StubSource{Users: []db.UserRecord{{ID: 1}}}, codes.Ok, ""},
		{"readyz connect failure", "/readyz", &testutil.StubSource{Err: connectErr}, codes.Error, "connect"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := recordSpans(t)
			h := newTestMux(t, testConfig(), tt.src, fakeNode{facts: node.Facts{Hostname: "web-1"}})
			_ = get(t, h, tt.path)

			span := findSpan(t, rec, "db.probe")
			if got := span.Status().Code; got != tt.wantCode {
				t.Fatalf("span status = %v, want %v", got, tt.wantCode)
			}
			if got := stageAttr(span); got != tt.wantStage {
				t.Errorf("stage attribute = %q, want %q", got, tt.wantStage)
			}
			wantEvents := 0
			if tt.wantCode == codes.Error {
				wantEvents = 1
			}
			if n := len(span.Events()); n != wantEvents {
				t.Errorf("span has %d events, want %d", n, wantEvents)
			}
		})
	}
}
