// Package db opens a short-lived connection to the probed database and reads the
// test_users sample the status page renders.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql" // mysql driver registered as 'mysql'
	_ "github.com/jackc/pgx/v5/stdlib" // pgx postgres driver registered as 'pgx'

	"github.com/onnwee/nodecheck/config"
)

// SampleQuery is the only statement this package ever runs.
const SampleQuery = "SELECT * FROM test_users ORDER BY id LIMIT 5"

// MaxRows caps the rendered sample regardless of what the driver returns.
const MaxRows = 5

const createdAtLayout = "2006-01-02 15:04:05"

// UserRecord is one row of test_users.
type UserRecord struct {
	ID        int64
	Name      string
	Email     string
	CreatedAt string
}

// Source yields the user sample for one request.
type Source interface {
	FetchUsers(ctx context.Context) ([]UserRecord, error)
}

// Opener returns a fresh handle for a single probe. The caller closes it.
type Opener func(ctx context.Context) (*sql.DB, error)

// Prober is the production Source: one connection and one query per call, nothing retained.
type Prober struct {
	open    Opener
	timeout time.Duration
}

// NewSource builds a Prober for the given connection settings.
func NewSource(cfg config.ConnectionConfig) *Prober {
	return &Prober{open: ConnectFunc(cfg), timeout: cfg.Timeout}
}

// NewProber builds a Prober around a custom opener (tests, alternative drivers).
func NewProber(open Opener, timeout time.Duration) *Prober {
	return &Prober{open: open, timeout: timeout}
}

// ConnectFunc returns an Opener for cfg. The handle is limited to a single connection
// so no pool outlives the request.
func ConnectFunc(cfg config.ConnectionConfig) Opener {
	return func(ctx context.Context) (*sql.DB, error) {
		db, err := sql.Open(cfg.DriverName(), cfg.DSN())
		if err != nil {
			return nil, err
		}
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(0)
		return db, nil
	}
}

// FetchUsers connects, runs SampleQuery and maps the rows.
func (p *Prober) FetchUsers(ctx context.Context) ([]UserRecord, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	db, err := p.open(ctx)
	if err != nil {
		return nil, &ProbeError{Stage: StageConnect, Err: err}
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return nil, &ProbeError{Stage: StageConnect, Err: err}
	}
	return QueryUsers(ctx, db)
}

// QueryUsers runs SampleQuery on an open handle.
func QueryUsers(ctx context.Context, db *sql.DB) ([]UserRecord, error) {
	rows, err := db.QueryContext(ctx, SampleQuery)
	if err != nil {
		return nil, &ProbeError{Stage: StageQuery, Err: err}
	}
	defer rows.Close()

	users, err := scanUsers(rows)
	if err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, &ProbeError{Stage: StageQuery, Err: err}
	}
	return users, nil
}

// rowScanner is the subset of *sql.Rows used by scanUsers.
type rowScanner interface {
	Columns() ([]string, error)
	Next() bool
	Scan(dest ...any) error
}

// scanUsers maps SELECT * output onto UserRecord by column name. Unknown columns are
// read and dropped; a missing required column fails the whole result.
func scanUsers(rows rowScanner) ([]UserRecord, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, &ProbeError{Stage: StageScan, Err: err}
	}
	idx := map[string]int{"id": -1, "name": -1, "email": -1, "created_at": -1}
	for i, c := range cols {
		key := strings.ToLower(c)
		if pos, ok := idx[key]; ok && pos == -1 {
			idx[key] = i
		}
	}
	var missing []string
	for _, want := range []string{"id", "name", "email", "created_at"} {
		if idx[want] < 0 {
			missing = append(missing, want)
		}
	}
	if len(missing) > 0 {
		return nil, &ProbeError{Stage: StageScan, Err: &SchemaError{Missing: missing, Columns: cols}}
	}

	users := make([]UserRecord, 0, MaxRows)
	for len(users) < MaxRows && rows.Next() {
		var (
			id        int64
			name      sql.NullString
			email     sql.NullString
			createdAt any
		)
		dest := make([]any, len(cols))
		for i := range dest {
			dest[i] = new(any)
		}
		dest[idx["id"]] = &id
		dest[idx["name"]] = &name
		dest[idx["email"]] = &email
		dest[idx["created_at"]] = &createdAt
		if err := rows.Scan(dest...); err != nil {
			return nil, &ProbeError{Stage: StageScan, Err: err}
		}
		users = append(users, UserRecord{
			ID:        id,
			Name:      name.String,
			Email:     email.String,
			CreatedAt: formatCreatedAt(createdAt),
		})
	}
	return users, nil
}

func formatCreatedAt(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case time.Time:
		return t.Format(createdAtLayout)
	case []byte:
		return string(t)
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}
