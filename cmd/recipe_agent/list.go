package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/jonathan/recipe-scraper/internal/db"
	"github.com/jonathan/recipe-scraper/internal/observability"
)

var listCommand = &cobra.Command{
	Use:   "list",
	Short: "List stored recipes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withStore(cmd, func(ctx context.Context, store db.Store) error {
			summaries, err := store.ListRecipes(ctx, db.ListFilter{Cuisine: listCuisine, Limit: listLimit})
			if err != nil {
				return err
			}
			observability.NewPrinter(cmd.OutOrStdout()).PrintRecipeTable(summaries)
			return nil
		})
	},
}

var (
	listCuisine string
	listLimit   int
)

func init() {
	listCommand.Flags().StringVar(&listCuisine, "cuisine", "", "Only list recipes of this cuisine")
	listCommand.Flags().IntVar(&listLimit, "limit", 0, "Maximum number of recipes to list (0 lists all)")

	rootCmd.AddCommand(listCommand)
}
