// Package status builds and renders the per-request connectivity report.
package status

import (
	"context"
	"time"

	"github.com/onnwee/nodecheck/db"
	"github.com/onnwee/nodecheck/node"
)

// Outcome is either Success or Failure.
type Outcome interface {
	isOutcome()
}

// Success carries the sampled rows (at most db.MaxRows).
type Success struct {
	Users []db.UserRecord
}

// Failure carries the driver's message and the stage that failed.
type Failure struct {
	Message string
	Stage   db.Stage
}

func (Success) isOutcome() {}
func (Failure) isOutcome() {}

// Report is everything the page shows for one request.
type Report struct {
	Node      node.Facts
	Timestamp string
	Outcome   Outcome
	Duration  time.Duration

	// Mount is the NFS share state; nil when the check is disabled.
	Mount *node.Mount
}

// Succeeded reports whether the database step worked.
func (r Report) Succeeded() bool {
	_, ok := r.Outcome.(Success)
	return ok
}

// Check runs the database step once and folds the result into an Outcome. It never retries.
func Check(ctx context.Context, src db.Source) (Outcome, time.Duration) {
	start := time.Now()
	users, err := src.FetchUsers(ctx)
	d := time.Since(start)
	if err != nil {
		msg := db.MessageOf(err)
		if msg == "" {
			msg = "unknown database error"
		}
		return Failure{Message: msg, Stage: db.StageOf(err)}, d
	}
	if len(users) > db.MaxRows {
		users = users[:db.MaxRows]
	}
	return Success{Users: users}, d
}
