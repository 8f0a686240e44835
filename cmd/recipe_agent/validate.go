package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/recipe-scraper/internal/schemas"
)

var validateCommand = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate a recipe JSON export against the recipe schema",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		err := schemas.ValidateRecipeFile(args[0])
		if err == nil {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Validation passed")
			return nil
		}

		var validationErr *schemas.ValidationError
		if errors.As(err, &validationErr) {
			_, _ = fmt.Fprint(cmd.OutOrStdout(), validationErr.Error())
			return fmt.Errorf("validation failed with %d errors in %d recipes",
				len(validationErr.Errors), len(validationErr.Records()))
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(validateCommand)
}
