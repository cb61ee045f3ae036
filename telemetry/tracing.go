// Package telemetry provides distributed tracing setup using OpenTelemetry.
package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// exportTimeout bounds both exporter dial and the final flush on shutdown.
const exportTimeout = 5 * time.Second

// Span attribute keys for the database step.
const (
	AttrStage = attribute.Key("nodecheck.db.stage")
	AttrRows  = attribute.Key("nodecheck.db.rows")
)

// InitTracing installs a global tracer provider that batches spans to an OTLP/gRPC
// collector at endpoint. With no endpoint the otel no-op provider stays in place and
// every helper in this file still works.
func InitTracing(serviceName, serviceVersion, endpoint string) (func(), error) {
	if endpoint == "" {
		slog.Info("tracing disabled: OTEL_EXPORTER_OTLP_ENDPOINT not set")
		return func() {}, nil
	}

	dialCtx, cancel := context.WithTimeout(context.Background(), exportTimeout)
	defer cancel()
	exp, err := otlptracegrpc.New(dialCtx, otlptracegrpc.WithInsecure(), otlptracegrpc.WithEndpoint(endpoint))
	if err != nil {
		return nil, fmt.Errorf("otlp trace exporter %s: %w", endpoint, err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource.NewSchemaless(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		)),
	)
	otel.SetTracerProvider(tp)
	slog.Info("tracing initialized", slog.String("service", serviceName), slog.String("endpoint", endpoint))

	return func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), exportTimeout)
		defer cancel()
		if err := tp.Shutdown(flushCtx); err != nil {
			slog.Error("tracer provider shutdown", slog.Any("err", err))
		}
	}, nil
}

// StartSpan starts a span on the named tracer, tagging it with the request's
// correlation id when there is one.
func StartSpan(ctx context.Context, tracerName, spanName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if corr := GetCorrelation(ctx); corr != "" {
		attrs = append(attrs, attribute.String("correlation_id", corr))
	}
	return otel.Tracer(tracerName).Start(ctx, spanName, trace.WithAttributes(attrs...))
}

// HTTPAttrs returns the request attributes recorded on server spans.
func HTTPAttrs(method, route string) []attribute.KeyValue {
	return []attribute.KeyValue{
		semconv.HTTPMethod(method),
		semconv.HTTPRoute(route),
	}
}

// SetSpanHTTPStatus records the response code and marks 5xx as errors.
func SetSpanHTTPStatus(span trace.Span, code int) {
	span.SetAttributes(semconv.HTTPStatusCode(code))
	if code >= 500 {
		span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", code))
	}
}

// RecordError marks a database span failed. stage is the step that stopped the
// attempt (connect, query, scan) and is omitted when empty. A nil err is ignored.
func RecordError(span trace.Span, stage string, err error) {
	if err == nil {
		return
	}
	if stage != "" {
		span.SetAttributes(AttrStage.String(stage))
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// SetSpanSuccess marks a database span Ok with the number of rows read.
func SetSpanSuccess(span trace.Span, rows int) {
	span.SetAttributes(AttrRows.Int(rows))
	span.SetStatus(codes.Ok, "")
}
