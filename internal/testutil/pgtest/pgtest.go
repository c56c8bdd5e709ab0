// Package pgtest provides a real Postgres for integration tests. DATABASE_URL
// wins when set; otherwise a disposable container is started with
// testcontainers. Packages start one database in TestMain and call Reset at
// the top of every test.
package pgtest

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/ayo6706/mobile-money-ledger/internal/db"
	"github.com/ayo6706/mobile-money-ledger/internal/models"
	"github.com/ayo6706/mobile-money-ledger/internal/testutil/dblock"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const image = "postgres:16-alpine"

// DB is a migrated database shared by the tests of one package.
type DB struct {
	Pool      *pgxpool.Pool
	container *tcpostgres.PostgresContainer
}

// Start connects to DATABASE_URL or launches a container, then applies the
// schema.
func Start(ctx context.Context) (*DB, error) {
	dsn := os.Getenv("DATABASE_URL")
	var container *tcpostgres.PostgresContainer
	if dsn == "" {
		var err error
		container, err = runContainer(ctx)
		if err != nil {
			return nil, err
		}
		dsn, err = container.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			_ = container.Terminate(ctx)
			return nil, fmt.Errorf("container dsn: %w", err)
		}
	}

	pool, err := db.Connect(ctx, dsn)
	if err == nil {
		err = db.EnsureSchema(ctx, pool)
		if err != nil {
			pool.Close()
		}
	}
	if err != nil {
		if container != nil {
			_ = container.Terminate(ctx)
		}
		return nil, err
	}
	return &DB{Pool: pool, container: container}, nil
}

// runContainer reports a missing Docker daemon as an error; testcontainers
// panics in that case on some platforms.
func runContainer(ctx context.Context) (c *tcpostgres.PostgresContainer, err error) {
	defer func() {
		if r := recover(); r != nil {
			c, err = nil, fmt.Errorf("start postgres container: %v", r)
		}
	}()
	c, err = tcpostgres.Run(ctx, image,
		tcpostgres.WithDatabase("ledger"),
		tcpostgres.WithUsername("ledger"),
		tcpostgres.WithPassword("ledger"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("start postgres container: %w", err)
	}
	return c, nil
}

// Close releases the pool and terminates the container, if any.
func (d *DB) Close() {
	if d == nil {
		return
	}
	d.Pool.Close()
	if d.container != nil {
		_ = d.container.Terminate(context.Background())
	}
}

// Require returns d, or skips t when the database could not be started.
func Require(t testing.TB, d *DB, startErr error) *DB {
	t.Helper()
	if d == nil {
		t.Skipf("postgres unavailable: %v", startErr)
	}
	d.Reset(t)
	return d
}

// Reset takes the cross-package database lock for the rest of t and empties
// every table.
func (d *DB) Reset(t testing.TB) {
	t.Helper()
	dblock.Acquire(t)
	_, err := d.Pool.Exec(context.Background(),
		`TRUNCATE audit_log, ledger_entries, accounts, idempotency_keys RESTART IDENTITY CASCADE`)
	if err != nil {
		t.Fatalf("reset database: %v", err)
	}
}

// AuditLogs returns every audit row in insertion order.
func (d *DB) AuditLogs(t testing.TB) []models.AuditLog {
	t.Helper()
	rows, err := d.Pool.Query(context.Background(),
		`SELECT id, entity_type, entity_id, actor_id, action, prev_state, next_state, metadata, created_at
		FROM audit_log ORDER BY id`)
	if err != nil {
		t.Fatalf("list audit logs: %v", err)
	}
	logs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.AuditLog, error) {
		var l models.AuditLog
		err := row.Scan(&l.ID, &l.EntityType, &l.EntityID, &l.ActorID, &l.Action, &l.PrevState, &l.NextState, &l.Metadata, &l.CreatedAt)
		return l, err
	})
	if err != nil {
		t.Fatalf("scan audit logs: %v", err)
	}
	return logs
}

// Count returns the number of rows in table matching the optional where
// clause.
func (d *DB) Count(t testing.TB, table, where string, args ...any) int {
	t.Helper()
	query := "SELECT count(*) FROM " + table
	if where != "" {
		query += " WHERE " + where
	}
	var n int
	if err := d.Pool.QueryRow(context.Background(), query, args...).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}
