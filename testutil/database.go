package testutil

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/onnwee/nodecheck/config"
)

// Fixture rows seeded by SetupTestUsers, in id order.
var Fixture = []struct {
	ID                int
	Name, Email, When string
}{
	{1, "Alice", "a@x.com", "2024-01-01 00:00:00"},
	{2, "Bob", "b@x.com", "2024-01-02 00:00:00"},
}

// LiveConnection returns connection settings for a real database taken from
// TEST_MYSQL_DSN or TEST_PG_DSN. It skips the test when neither is set.
func LiveConnection(t *testing.T) config.ConnectionConfig {
	t.Helper()
	if dsn := os.Getenv("TEST_MYSQL_DSN"); dsn != "" {
		return config.ConnectionConfig{Driver: config.DriverMySQL, RawDSN: dsn}
	}
	if dsn := os.Getenv("TEST_PG_DSN"); dsn != "" {
		return config.ConnectionConfig{Driver: config.DriverPostgres, RawDSN: dsn}
	}
	t.Skip("TEST_MYSQL_DSN / TEST_PG_DSN not set")
	return config.ConnectionConfig{}
}

// SetupTestUsers recreates test_users on the live database and seeds it with Fixture
// (or leaves it empty when empty is true). The table is dropped on cleanup.
func SetupTestUsers(t *testing.T, cc config.ConnectionConfig, empty bool) {
	t.Helper()
	database, err := sql.Open(cc.DriverName(), cc.DSN())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() {
		_, _ = database.ExecContext(context.Background(), `DROP TABLE IF EXISTS test_users`)
		database.Close()
	})

	ctx := context.Background()
	stmts := []string{
		`DROP TABLE IF EXISTS test_users`,
		`CREATE TABLE test_users (
			id INTEGER PRIMARY KEY,
			name VARCHAR(100),
			email VARCHAR(100),
			created_at TIMESTAMP
		)`,
	}
	for _, s := range stmts {
		if _, err := database.ExecContext(ctx, s); err != nil {
			t.Fatalf("prepare test_users: %v", err)
		}
	}
	if empty {
		return
	}
	insert := `INSERT INTO test_users (id, name, email, created_at) VALUES (?, ?, ?, ?)`
	if cc.Driver == config.DriverPostgres {
		insert = `INSERT INTO test_users (id, name, email, created_at) VALUES ($1, $2, $3, $4)`
	}
	// inserted out of order so ORDER BY is actually exercised
	for i := len(Fixture) - 1; i >= 0; i-- {
		f := Fixture[i]
		if _, err := database.ExecContext(ctx, insert, f.ID, f.Name, f.Email, f.When); err != nil {
			t.Fatalf("seed test_users: %v", err)
		}
	}
}
