// Package pipeline orchestrates a full scrape: cuisine discovery, listing
// crawl, concurrent recipe assembly, merging and persistence.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/recipe-scraper/internal/assembly"
	"github.com/jonathan/recipe-scraper/internal/catalog"
	"github.com/jonathan/recipe-scraper/internal/crawling"
	"github.com/jonathan/recipe-scraper/internal/db"
	"github.com/jonathan/recipe-scraper/internal/fetch"
	"github.com/jonathan/recipe-scraper/internal/types"
)

// DefaultWorkers is the default number of pages rendered concurrently.
const DefaultWorkers = 10

// Progress steps
const (
	StepDiscover = "discover"
	StepListings = "listings"
	StepRecipes  = "recipes"
	StepMerge    = "merge"
	StepPersist  = "persist"
)

// ProgressEvent represents a progress update during a scrape
type ProgressEvent struct {
	Step     string `json:"step"`
	Category string `json:"category"`
	Message  string `json:"message"`
	RunID    string `json:"run_id,omitempty"`
	Content  any    `json:"content,omitempty"`
}

// ProgressCallback is called when scrape progress occurs
type ProgressCallback func(event ProgressEvent)

// RunOptions holds configuration for running a scrape
type RunOptions struct {
	Renderer fetch.Renderer
	Catalog  *catalog.Catalog
	// Store is optional; without it nothing is persisted.
	Store   db.Store
	BaseURL string
	Source  string
	Workers int
	// Regions restricts the crawl to these cuisines when non-empty.
	Regions    []string
	Logger     *slog.Logger
	OnProgress ProgressCallback
}

// Result is the outcome of a scrape.
type Result struct {
	RunID    uuid.UUID
	Cuisines []crawling.Cuisine
	// Recipes holds the merged validated recipes, catalog blends first.
	Recipes  []types.Recipe
	Rejected []assembly.Outcome
	Saved    int
	// Partial is set when the scrape was cancelled before every page was
	// assembled.
	Partial bool
}

// job is one recipe page to assemble. seq orders outcomes by discovery.
type job struct {
	seq    int
	path   string
	region string
}

type sequenced struct {
	seq     int
	outcome assembly.Outcome
}

// Run performs a full scrape. Per-page failures are collected in
// Result.Rejected; only an unreachable render backend aborts the run.
// Cancelling ctx stops dispatch and returns what was collected with
// Result.Partial set.
func Run(ctx context.Context, opts RunOptions) (*Result, error) {
	if opts.Renderer == nil {
		return nil, fmt.Errorf("renderer is required")
	}
	if opts.Catalog == nil {
		return nil, fmt.Errorf("catalog is required")
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	res := &Result{}
	if opts.Store != nil {
		runID, err := opts.Store.CreateRun(ctx)
		if err != nil {
			return nil, err
		}
		res.RunID = runID
	}

	cuisines, err := discoverCuisines(ctx, &opts)
	if err != nil {
		completeRun(context.WithoutCancel(ctx), &opts, res, db.RunStatusFailed)
		return nil, err
	}
	res.Cuisines = cuisines
	emitProgress(&opts, res, StepDiscover, "info", fmt.Sprintf("found %d cuisines", len(cuisines)), cuisines)

	jobs, err := crawlListings(ctx, &opts, cuisines)
	if err != nil {
		completeRun(context.WithoutCancel(ctx), &opts, res, db.RunStatusFailed)
		return nil, err
	}
	emitProgress(&opts, res, StepListings, "info", fmt.Sprintf("found %d recipe pages", len(jobs)), nil)

	outcomes, err := assembleAll(ctx, &opts, jobs)
	if err != nil {
		completeRun(context.WithoutCancel(ctx), &opts, res, db.RunStatusFailed)
		return nil, err
	}
	res.Partial = ctx.Err() != nil

	validated := opts.Catalog.Recipes()
	for _, out := range outcomes {
		if out.Validated() {
			validated = append(validated, *out.Recipe)
		} else {
			res.Rejected = append(res.Rejected, out)
		}
	}
	res.Recipes = assembly.Merge(validated)
	emitProgress(&opts, res, StepRecipes, "info",
		fmt.Sprintf("assembled %d pages: %d rejected", len(outcomes), len(res.Rejected)), nil)
	emitProgress(&opts, res, StepMerge, "info", fmt.Sprintf("merged into %d recipes", len(res.Recipes)), nil)

	if opts.Store != nil && !res.Partial {
		res.Saved = persist(ctx, &opts, res.Recipes)
		emitProgress(&opts, res, StepPersist, "info", fmt.Sprintf("saved %d recipes", res.Saved), nil)
	}

	status := db.RunStatusCompleted
	if res.Partial {
		status = db.RunStatusPartial
	}
	completeRun(context.WithoutCancel(ctx), &opts, res, status)
	return res, nil
}

// discoverCuisines reads the cuisine listings linked from the archive page.
func discoverCuisines(ctx context.Context, opts *RunOptions) ([]crawling.Cuisine, error) {
	doc, err := opts.Renderer.Render(ctx, crawling.ArchivePath,
		fetch.ActionDismissPopup, fetch.ActionScrollToBottom)
	if err != nil {
		return nil, &crawling.CrawlError{Path: crawling.ArchivePath, Message: "failed to render", Cause: err}
	}

	cuisines, err := crawling.ExtractCuisineLinks(doc)
	if err != nil {
		return nil, &crawling.CrawlError{Path: crawling.ArchivePath, Message: "failed to read cuisine links on", Cause: err}
	}
	return crawling.FilterRegions(cuisines, opts.Regions), nil
}

// crawlListings expands every cuisine into recipe jobs. A listing that fails
// to render is logged and skipped.
func crawlListings(ctx context.Context, opts *RunOptions, cuisines []crawling.Cuisine) ([]job, error) {
	links := make([][]string, len(cuisines))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for i, c := range cuisines {
		g.Go(func() error {
			doc, err := opts.Renderer.Render(gCtx, c.Path, fetch.ActionDismissPopup, fetch.ActionLoadMore)
			if err != nil {
				if errors.Is(err, fetch.ErrBackendUnavailable) && ctx.Err() == nil {
					return err
				}
				opts.Logger.WarnContext(gCtx, "skipping cuisine listing", "region", c.Region, "path", c.Path, "err", err)
				return nil
			}
			paths, err := crawling.ExtractRecipeLinks(doc)
			if err != nil {
				opts.Logger.WarnContext(gCtx, "skipping cuisine listing", "region", c.Region, "path", c.Path, "err", err)
				return nil
			}
			links[i] = paths
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, &crawling.CrawlError{Message: "failed to crawl listings", Cause: err}
	}

	var jobs []job
	for i, paths := range links {
		for _, p := range paths {
			jobs = append(jobs, job{seq: len(jobs), path: p, region: cuisines[i].Region})
		}
	}
	return jobs, nil
}

// assembleAll runs jobs on a bounded worker pool. Outcomes are gathered by
// a single collector and returned in job order.
func assembleAll(ctx context.Context, opts *RunOptions, jobs []job) ([]assembly.Outcome, error) {
	asm := &assembly.Assembler{
		Renderer:   opts.Renderer,
		Composites: opts.Catalog,
		BaseURL:    opts.BaseURL,
		Source:     opts.Source,
		Logger:     opts.Logger,
	}

	results := make(chan sequenced)
	var collected []sequenced
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for r := range results {
			collected = append(collected, r)
		}
	}()

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for _, j := range jobs {
		if gCtx.Err() != nil {
			break
		}
		g.Go(func() error {
			out := asm.Assemble(gCtx, j.path, j.region)
			if errors.Is(out.Err, fetch.ErrBackendUnavailable) {
				// a backend torn down with a cancelled run is not a failure
				if ctx.Err() != nil {
					return nil
				}
				return out.Err
			}
			if gCtx.Err() != nil && errors.Is(out.Err, gCtx.Err()) {
				return nil
			}
			results <- sequenced{seq: j.seq, outcome: out}
			return nil
		})
	}
	err := g.Wait()
	close(results)
	wg.Wait()

	if err != nil {
		return nil, fmt.Errorf("scrape aborted: %w", err)
	}

	sort.Slice(collected, func(a, b int) bool { return collected[a].seq < collected[b].seq })
	outcomes := make([]assembly.Outcome, 0, len(collected))
	for _, r := range collected {
		outcomes = append(outcomes, r.outcome)
	}
	return outcomes, nil
}

// persist saves recipes one by one and returns how many were stored.
func persist(ctx context.Context, opts *RunOptions, recipes []types.Recipe) int {
	saved := 0
	for i := range recipes {
		if _, err := opts.Store.SaveRecipe(ctx, &recipes[i]); err != nil {
			opts.Logger.ErrorContext(ctx, "failed to save recipe", "title", recipes[i].Title, "err", err)
			continue
		}
		saved++
	}
	return saved
}

func completeRun(ctx context.Context, opts *RunOptions, res *Result, status db.RunStatus) {
	if opts.Store == nil || res.RunID == uuid.Nil {
		return
	}
	validated := len(res.Recipes) - opts.Catalog.Len()
	if validated < 0 {
		validated = 0
	}
	if err := opts.Store.CompleteRun(ctx, res.RunID, status, validated, len(res.Rejected)); err != nil {
		opts.Logger.ErrorContext(ctx, "failed to complete run", "run_id", res.RunID, "err", err)
	}
}

// emitProgress calls the progress callback if configured
func emitProgress(opts *RunOptions, res *Result, step, category, message string, content any) {
	if opts.OnProgress == nil {
		return
	}
	event := ProgressEvent{
		Step:     step,
		Category: category,
		Message:  message,
		Content:  content,
	}
	if res.RunID != uuid.Nil {
		event.RunID = res.RunID.String()
	}
	opts.OnProgress(event)
}
