// Package server exposes the HTTP API handlers.
package server

import (
	"context"
	"time"

	"github.com/onnwee/nodecheck/config"
	"github.com/onnwee/nodecheck/db"
	"github.com/onnwee/nodecheck/node"
)

// identifier is satisfied by node.Identifier.
type identifier interface {
	Identify(ctx context.Context) (node.Facts, error)
}

// mountChecker is satisfied by node.MountChecker.
type mountChecker interface {
	Check(ctx context.Context) (node.Mount, error)
}

// Handlers holds dependencies for all HTTP handlers.
type Handlers struct {
	cfg     *config.Config
	src     db.Source
	node    identifier
	mount   mountChecker // nil when NFS_MOUNT_PATH is unset
	now     func() time.Time
	timeout time.Duration
}

// NewHandlers creates a new Handlers instance with the given dependencies.
func NewHandlers(cfg *config.Config, src db.Source) *Handlers {
	h := &Handlers{
		cfg:     cfg,
		src:     src,
		node:    node.Identifier{},
		now:     time.Now,
		timeout: cfg.DB.Timeout,
	}
	if cfg.NFSMountPath != "" {
		h.mount = node.MountChecker{Path: cfg.NFSMountPath}
	}
	return h
}

// probeContext bounds a single database probe.
func (h *Handlers) probeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if h.timeout > 0 {
		return context.WithTimeout(ctx, h.timeout)
	}
	return context.WithCancel(ctx)
}
