package telemetry

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestInitTracingDisabled(t *testing.T) {
	shutdown, err := InitTracing("nodecheck", "test", "")
	if err != nil {
		t.Fatalf("InitTracing: %v", err)
	}
	if shutdown == nil {
		t.Fatal("shutdown func is nil")
	}
	shutdown()
}

func attrValue(attrs []attribute.KeyValue, key attribute.Key) (attribute.Value, bool) {
	for _, kv := range attrs {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestSpanHelpers(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	ctx := WithCorrelation(context.Background(), "c-1")
	_, failed := tp.Tracer("test").Start(ctx, "db.check")
	RecordError(failed, "connect", errors.New("connection refused"))
	failed.End()

	_, ok := tp.Tracer("test").Start(ctx, "db.check")
	SetSpanSuccess(ok, 2)
	ok.End()

	_, plain := tp.Tracer("test").Start(ctx, "GET /")
	SetSpanHTTPStatus(plain, 503)
	RecordError(plain, "", nil)
	plain.End()

	spans := rec.Ended()
	if len(spans) != 3 {
		t.Fatalf("got %d spans, want 3", len(spans))
	}

	if got := spans[0].Status(); got.Code != codes.Error || got.Description != "connection refused" {
		t.Errorf("failed span status = %+v, want Error/connection refused", got)
	}
	if v, found := attrValue(spans[0].Attributes(), AttrStage); !found || v.AsString() != "connect" {
		t.Errorf("stage attribute = %v (found=%v), want connect", v.AsString(), found)
	}
	if n := len(spans[0].Events()); n != 1 {
		t.Errorf("failed span has %d events, want 1 exception event", n)
	}

	if spans[1].Status().Code != codes.Ok {
		t.Errorf("ok span status = %v, want Ok", spans[1].Status().Code)
	}
	if v, found := attrValue(spans[1].Attributes(), AttrRows); !found || v.AsInt64() != 2 {
		t.Errorf("rows attribute = %v (found=%v), want 2", v.AsInt64(), found)
	}

	if spans[2].Status().Code != codes.Error {
		t.Errorf("5xx span status = %v, want Error", spans[2].Status().Code)
	}
	if n := len(spans[2].Events()); n != 0 {
		t.Errorf("nil error recorded %d events, want 0", n)
	}
}

func TestStartSpanAddsCorrelation(t *testing.T) {
	ctx := WithCorrelation(context.Background(), "c-2")
	_, span := StartSpan(ctx, "test", "op", HTTPAttrs("GET", "/")...)
	defer span.End()
	if span == nil {
		t.Fatal("StartSpan returned nil span")
	}
}
