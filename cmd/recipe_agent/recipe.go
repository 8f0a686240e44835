package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/recipe-scraper/internal/assembly"
	"github.com/jonathan/recipe-scraper/internal/catalog"
)

var recipeCommand = &cobra.Command{
	Use:   "recipe <path>",
	Short: "Scrape a single recipe page and print it as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runRecipeCmd,
}

var (
	recipeCuisines []string
	recipeSave     bool
)

func init() {
	recipeCommand.Flags().StringSliceVar(&recipeCuisines, "cuisine", nil, "Cuisine to record on the recipe (repeatable)")
	recipeCommand.Flags().BoolVar(&recipeSave, "save", false, "Store the recipe in the database")

	rootCmd.AddCommand(recipeCommand)
}

func runRecipeCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	logger := newLogger(cfg)

	composites, err := catalog.Load()
	if err != nil {
		return err
	}

	renderer, closeRenderer, err := newRenderer(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to start renderer: %w", err)
	}
	defer closeRenderer()

	asm := &assembly.Assembler{
		Renderer:   renderer,
		Composites: composites,
		BaseURL:    cfg.BaseURL,
		Source:     cfg.Source,
		Logger:     logger,
	}

	out := asm.Assemble(ctx, args[0], recipeCuisines...)
	if !out.Validated() {
		return fmt.Errorf("recipe %s rejected while %s: %w", out.Path, out.FailedAt, out.Err)
	}

	if recipeSave {
		store, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer store.Close()
		if _, err := store.SaveRecipe(ctx, out.Recipe); err != nil {
			return err
		}
	}

	data, err := json.MarshalIndent(out.Recipe, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal recipe: %w", err)
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
