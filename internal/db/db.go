package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Queries wraps the school database connection. All aggregate queries the
// dashboard providers run live on this type.
type Queries struct {
	db *sql.DB
}

// Init opens the Postgres connection, verifies it, and applies the
// statement timeout so a wedged aggregate query cannot pin a worker slot
// indefinitely.
func Init(connStr string, statementTimeout time.Duration) (*Queries, error) {
	conn, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	conn.SetMaxOpenConns(16)
	conn.SetMaxIdleConns(4)
	conn.SetConnMaxLifetime(30 * time.Minute)

	if statementTimeout > 0 {
		ms := statementTimeout.Milliseconds()
		if _, err := conn.Exec(fmt.Sprintf("SET statement_timeout = %d", ms)); err != nil {
			return nil, fmt.Errorf("set statement_timeout: %w", err)
		}
	}

	return &Queries{db: conn}, nil
}

// New wraps an existing connection. Used by tests.
func New(conn *sql.DB) *Queries {
	return &Queries{db: conn}
}

// DB exposes the underlying connection for raw SQL when needed.
func (q *Queries) DB() *sql.DB {
	return q.db
}

// Ping verifies the connection is still alive.
func (q *Queries) Ping(ctx context.Context) error {
	return q.db.PingContext(ctx)
}

// Close closes the underlying connection pool.
func (q *Queries) Close() error {
	return q.db.Close()
}
