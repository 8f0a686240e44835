package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgConn is the subset shared by *pgxpool.Pool and pgx.Tx.
type pgConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type pgQuerier struct {
	conn pgConn
}

func (q pgQuerier) exec(ctx context.Context, sql string, args ...any) error {
	_, err := q.conn.Exec(ctx, sql, args...)
	return err
}

func (q pgQuerier) queryRow(ctx context.Context, sql string, args ...any) row {
	return pgRow{q.conn.QueryRow(ctx, sql, args...)}
}

func (q pgQuerier) query(ctx context.Context, sql string, args ...any) (rows, error) {
	return q.conn.Query(ctx, sql, args...)
}

type pgRow struct {
	row pgx.Row
}

func (r pgRow) Scan(dest ...any) error {
	err := r.row.Scan(dest...)
	if errors.Is(err, pgx.ErrNoRows) {
		return errNoRows
	}
	return err
}

type pgTx struct {
	pgQuerier
	tx pgx.Tx
}

func (t pgTx) commit(ctx context.Context) error   { return t.tx.Commit(ctx) }
func (t pgTx) rollback(ctx context.Context) error { return t.tx.Rollback(ctx) }

type pgBackend struct {
	pgQuerier
	pool *pgxpool.Pool
}

func (b pgBackend) begin(ctx context.Context) (tx, error) {
	t, err := b.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return pgTx{pgQuerier: pgQuerier{conn: t}, tx: t}, nil
}

func (b pgBackend) schema() string { return "postgres.sql" }

func (b pgBackend) close() { b.pool.Close() }

// Connect establishes a connection pool to a PostgreSQL database. The schema
// is not applied; use Open or Migrate for that.
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{b: pgBackend{pgQuerier: pgQuerier{conn: pool}, pool: pool}}, nil
}
