package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/onnwee/nodecheck/db"
	"github.com/onnwee/nodecheck/telemetry"
)

// HandleHealthz responds to liveness probes. It never touches the database so a
// database outage does not get the node restarted.
func (h *Handlers) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// HandleReadyz runs the same probe as the status page and reports it as JSON.
func (h *Handlers) HandleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.probeContext(r.Context())
	defer cancel()
	ctx, span := telemetry.StartSpan(ctx, "readyz", "db.probe")
	defer span.End()

	users, err := h.src.FetchUsers(ctx)
	if err != nil {
		telemetry.RecordError(span, string(db.StageOf(err)), err)
		telemetry.LoggerWithCorr(ctx).Warn("readiness check failed", slog.String("component", "readyz"), slog.String("stage", string(db.StageOf(err))), slog.Any("err", err))
	} else {
		telemetry.SetSpanSuccess(span, len(users))
	}
	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status":       "not_ready",
			"failed_check": "database",
			"stage":        string(db.StageOf(err)),
			"error":        db.MessageOf(err),
		})
		return
	}
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]any{"status": "ready", "rows": len(users)})
}
