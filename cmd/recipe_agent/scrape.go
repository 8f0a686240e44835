package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonathan/recipe-scraper/internal/catalog"
	"github.com/jonathan/recipe-scraper/internal/observability"
	"github.com/jonathan/recipe-scraper/internal/pipeline"
	"github.com/jonathan/recipe-scraper/internal/schemas"
	"github.com/jonathan/recipe-scraper/internal/types"
)

var scrapeCommand = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape every recipe on the site and store the results",
	Long: `Discovers the cuisine listings on the recipe archive, renders every recipe page
they link to, and stores each validated recipe together with the built-in spice blends.

Interrupting the scrape keeps the recipes assembled so far; they are reported but not stored.`,
	RunE: runScrapeCmd,
}

var (
	scrapeWorkers   int
	scrapeCuisines  []string
	scrapeNoPersist bool
	scrapeOut       string
)

func init() {
	scrapeCommand.Flags().IntVarP(&scrapeWorkers, "workers", "w", 0, "Number of pages rendered concurrently")
	scrapeCommand.Flags().StringSliceVar(&scrapeCuisines, "cuisine", nil, "Restrict the scrape to these cuisines (repeatable)")
	scrapeCommand.Flags().BoolVar(&scrapeNoPersist, "no-persist", false, "Do not write results to the database")
	scrapeCommand.Flags().StringVarP(&scrapeOut, "out", "o", "", "Write validated recipes as JSON to this file")

	rootCmd.AddCommand(scrapeCommand)
}

func runScrapeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("workers") {
		cfg.Workers = scrapeWorkers
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := newLogger(cfg)
	printer := observability.NewPrinter(cmd.OutOrStdout())

	composites, err := catalog.Load()
	if err != nil {
		return err
	}

	renderer, closeRenderer, err := newRenderer(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to start renderer: %w", err)
	}
	defer closeRenderer()

	opts := pipeline.RunOptions{
		Renderer: renderer,
		Catalog:  composites,
		BaseURL:  cfg.BaseURL,
		Source:   cfg.Source,
		Workers:  cfg.Workers,
		Regions:  scrapeCuisines,
		Logger:   logger,
	}
	if cfg.Verbose {
		opts.OnProgress = printer.PrintProgress
	}

	if !scrapeNoPersist {
		store, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer store.Close()
		opts.Store = store
	}

	res, err := pipeline.Run(ctx, opts)
	if err != nil {
		return err
	}
	printer.PrintRunSummary(res)

	if scrapeOut != "" {
		if err := writeRecipes(scrapeOut, res.Recipes); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d recipes to %s\n", len(res.Recipes), scrapeOut)
	}
	return nil
}

// writeRecipes validates recipes against the export schema and writes them
// as indented JSON.
func writeRecipes(path string, recipes []types.Recipe) error {
	if err := schemas.ValidateRecipes(recipes); err != nil {
		return fmt.Errorf("export failed schema validation: %w", err)
	}
	data, err := json.MarshalIndent(recipes, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal recipes: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
