package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/recipe-scraper/internal/catalog"
	"github.com/jonathan/recipe-scraper/internal/db"
	"github.com/jonathan/recipe-scraper/internal/grocery"
	"github.com/jonathan/recipe-scraper/internal/observability"
	"github.com/jonathan/recipe-scraper/internal/types"
)

var groceryCommand = &cobra.Command{
	Use:   "grocery <title>...",
	Short: "Print a combined grocery list for stored recipes",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runGroceryCmd,
}

var (
	groceryFollowParents bool
	groceryPlain         bool
)

func init() {
	groceryCommand.Flags().BoolVar(&groceryFollowParents, "follow-parents", false, "Expand spice blends into their own ingredients")
	groceryCommand.Flags().BoolVar(&groceryPlain, "plain", false, "Print one line per item instead of a table")

	rootCmd.AddCommand(groceryCommand)
}

func runGroceryCmd(cmd *cobra.Command, titles []string) error {
	return withStore(cmd, func(ctx context.Context, store db.Store) error {
		recipes := make([]types.Recipe, 0, len(titles))
		for _, title := range titles {
			r, err := store.GetRecipe(ctx, title)
			if err != nil {
				return err
			}
			if r == nil {
				return fmt.Errorf("recipe %q not found", title)
			}
			recipes = append(recipes, *r)
		}

		opts := &grocery.Options{FollowParents: groceryFollowParents}
		if groceryFollowParents {
			composites, err := catalog.Load()
			if err != nil {
				return err
			}
			opts.Composites = composites
		}

		lines := grocery.List(recipes, opts)
		if groceryPlain {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), grocery.Format(lines))
			return nil
		}
		observability.NewPrinter(cmd.OutOrStdout()).PrintGroceryList(lines)
		return nil
	})
}
