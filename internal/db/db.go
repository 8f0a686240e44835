// Package db persists recipes into a relational store. PostgreSQL (pgx) and
// SQLite (modernc) backends share the same SQL; SQLite is the default for
// local runs and tests.
package db

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/jonathan/recipe-scraper/internal/types"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// DefaultSQLiteName is the database file created under the OS temp dir when
// no database URL is configured.
const DefaultSQLiteName = "recipes.db"

// errNoRows is returned by row.Scan when a query matched nothing, for
// either backend.
var errNoRows = errors.New("no rows in result set")

// Store is the persistence contract used by the pipeline and the CLI.
type Store interface {
	GetOrCreate(ctx context.Context, kind EntityKind, key string) (id int64, created bool, err error)
	SaveRecipe(ctx context.Context, r *types.Recipe) (int64, error)
	GetRecipe(ctx context.Context, title string) (*types.Recipe, error)
	ListRecipes(ctx context.Context, filter ListFilter) ([]RecipeSummary, error)
	CreateRun(ctx context.Context) (uuid.UUID, error)
	CompleteRun(ctx context.Context, runID uuid.UUID, status RunStatus, validated, rejected int) error
	GetRun(ctx context.Context, runID uuid.UUID) (*Run, error)
	Close()
}

var _ Store = (*DB)(nil)

// row is a single-row query result.
type row interface {
	Scan(dest ...any) error
}

// rows is a multi-row query result.
type rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}

// querier runs SQL written with $N placeholders.
type querier interface {
	exec(ctx context.Context, sql string, args ...any) error
	queryRow(ctx context.Context, sql string, args ...any) row
	query(ctx context.Context, sql string, args ...any) (rows, error)
}

type tx interface {
	querier
	commit(ctx context.Context) error
	rollback(ctx context.Context) error
}

type backend interface {
	querier
	begin(ctx context.Context) (tx, error)
	schema() string
	close()
}

// DB is a recipe store on top of one backend.
type DB struct {
	b backend
}

// Open connects to databaseURL and applies the schema. postgres:// and
// postgresql:// URLs use PostgreSQL; sqlite:// URLs, file paths and
// ":memory:" use SQLite. An empty URL opens DefaultSQLiteName under the OS
// temp dir.
func Open(ctx context.Context, databaseURL string) (*DB, error) {
	var (
		db  *DB
		err error
	)
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		db, err = Connect(ctx, databaseURL)
	case databaseURL == "":
		path, perr := DefaultSQLitePath()
		if perr != nil {
			return nil, perr
		}
		db, err = OpenSQLite(ctx, path)
	default:
		db, err = OpenSQLite(ctx, strings.TrimPrefix(databaseURL, "sqlite://"))
	}
	if err != nil {
		return nil, err
	}

	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// DefaultSQLitePath returns the default database file, creating its directory.
func DefaultSQLitePath() (string, error) {
	dir := filepath.Join(os.TempDir(), "recipe-scraper")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create database directory: %w", err)
	}
	return filepath.Join(dir, DefaultSQLiteName), nil
}

// Migrate creates any missing tables.
func (db *DB) Migrate(ctx context.Context) error {
	ddl, err := schemaFS.ReadFile("schema/" + db.b.schema())
	if err != nil {
		return fmt.Errorf("failed to read schema: %w", err)
	}
	if err := db.b.exec(ctx, string(ddl)); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Close closes the underlying connections.
func (db *DB) Close() {
	if db.b != nil {
		db.b.close()
	}
}

// inTx runs fn in a transaction, committing when it returns nil.
func (db *DB) inTx(ctx context.Context, fn func(q querier) error) error {
	t, err := db.b.begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(t); err != nil {
		_ = t.rollback(ctx)
		return err
	}
	if err := t.commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
