package testutil

import (
	"context"
	"sync"

	"github.com/onnwee/nodecheck/db"
)

// StubSource is a db.Source returning canned users or an error.
type StubSource struct {
	Users []db.UserRecord
	Err   error

	mu    sync.Mutex
	calls int
}

// FetchUsers implements db.Source.
func (s *StubSource) FetchUsers(ctx context.Context) ([]db.UserRecord, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.Err != nil {
		return nil, s.Err
	}
	out := make([]db.UserRecord, len(s.Users))
	copy(out, s.Users)
	return out, nil
}

// Calls reports how many times FetchUsers ran.
func (s *StubSource) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
