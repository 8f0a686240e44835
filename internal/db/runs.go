package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CreateRun creates a new scrape run record and returns its ID
func (db *DB) CreateRun(ctx context.Context) (uuid.UUID, error) {
	id := uuid.New()
	err := db.b.exec(ctx,
		`INSERT INTO scrape_runs (id, status, started_at) VALUES ($1, $2, $3)`,
		id.String(), string(RunStatusRunning), time.Now().UTC(),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create run: %w", err)
	}
	return id, nil
}

// CompleteRun records the final status and counts of a scrape run
func (db *DB) CompleteRun(ctx context.Context, runID uuid.UUID, status RunStatus, validated, rejected int) error {
	err := db.b.exec(ctx,
		`UPDATE scrape_runs
		 SET status = $1, validated = $2, rejected = $3, completed_at = $4
		 WHERE id = $5`,
		string(status), validated, rejected, time.Now().UTC(), runID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	return nil
}

// GetRun retrieves a scrape run by ID. It returns nil if none exists.
func (db *DB) GetRun(ctx context.Context, runID uuid.UUID) (*Run, error) {
	var (
		run    Run
		id     string
		status string
	)
	err := db.b.queryRow(ctx,
		`SELECT id, status, validated, rejected, started_at, completed_at
		 FROM scrape_runs WHERE id = $1`,
		runID.String(),
	).Scan(&id, &status, &run.Validated, &run.Rejected, &run.StartedAt, &run.CompletedAt)
	if err != nil {
		if errors.Is(err, errNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	run.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid run id %q: %w", id, err)
	}
	run.Status = RunStatus(status)
	return &run, nil
}
