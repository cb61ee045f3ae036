package server

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/onnwee/nodecheck/node"
	"github.com/onnwee/nodecheck/status"
	"github.com/onnwee/nodecheck/telemetry"
)

// HandleStatus renders the connectivity report. The response is 200 whether or not the
// database step succeeded; only a node identity or render failure yields 500.
func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	log := telemetry.LoggerWithCorr(r.Context())

	facts, err := h.node.Identify(r.Context())
	if err != nil {
		log.Error("node identity unavailable", slog.Any("err", err), slog.String("component", "status"))
		http.Error(w, "node identity unavailable", http.StatusInternalServerError)
		return
	}
	report := status.Report{Node: facts, Timestamp: node.FormatTimestamp(h.now())}
	if h.mount != nil {
		m, err := h.mount.Check(r.Context())
		if err != nil {
			log.Warn("nfs mount lookup failed", slog.Any("err", err), slog.String("component", "status"))
			m.Err = err.Error()
		}
		report.Mount = &m
	}

	ctx, cancel := h.probeContext(r.Context())
	ctx, span := telemetry.StartSpan(ctx, "status", "db.probe")
	report.Outcome, report.Duration = status.Check(ctx, h.src)
	switch o := report.Outcome.(type) {
	case status.Success:
		telemetry.SetSpanSuccess(span, len(o.Users))
		log.Info("db probe ok", slog.String("component", "status"), slog.Int("rows", len(o.Users)), slog.Duration("took", report.Duration))
	case status.Failure:
		telemetry.RecordError(span, string(o.Stage), errors.New(o.Message))
		log.Warn("db probe failed", slog.String("component", "status"), slog.String("stage", string(o.Stage)), slog.String("err", o.Message), slog.Duration("took", report.Duration))
	}
	span.End()
	cancel()
	telemetry.RecordProbe(report.Succeeded(), report.Duration)

	var buf bytes.Buffer
	if err := status.Render(&buf, report, h.cfg.NFSLink); err != nil {
		log.Error("render status page", slog.Any("err", err), slog.String("component", "status"))
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", status.ContentType)
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	_, _ = w.Write(buf.Bytes())
}
