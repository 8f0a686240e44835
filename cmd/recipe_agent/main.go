// Package main provides the entry point for the recipe scraper CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "recipe_agent",
	Short: "Recipe scraper",
	Long:  "recipe_agent crawls a meal-kit recipe site, turns each recipe page into a validated recipe record and stores it for listing and grocery planning.",

	SilenceUsage: true,
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
