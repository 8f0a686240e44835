package db

import (
	"time"

	"github.com/google/uuid"
)

// RunStatus is the lifecycle state of a scrape run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusPartial   RunStatus = "partial"
	RunStatusFailed    RunStatus = "failed"
)

// Run represents a scrape run record
type Run struct {
	ID          uuid.UUID  `json:"id"`
	Status      RunStatus  `json:"status"`
	Validated   int        `json:"validated"`
	Rejected    int        `json:"rejected"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// RecipeSummary is one row of a recipe listing
type RecipeSummary struct {
	ID              int64  `json:"id"`
	Title           string `json:"title"`
	PrepTime        int    `json:"prep_time"`
	Difficulty      string `json:"difficulty"`
	Feeds           int    `json:"feeds"`
	IngredientCount int    `json:"ingredient_count"`
}

// ListFilter narrows ListRecipes. Zero values mean no restriction.
type ListFilter struct {
	Cuisine string
	Limit   int
}
