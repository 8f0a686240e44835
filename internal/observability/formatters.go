// Package observability provides logging setup and formatted output
// utilities for the CLI.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/jonathan/recipe-scraper/internal/assembly"
	"github.com/jonathan/recipe-scraper/internal/db"
	"github.com/jonathan/recipe-scraper/internal/grocery"
	"github.com/jonathan/recipe-scraper/internal/pipeline"
	"github.com/jonathan/recipe-scraper/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// PrintProgress outputs a single progress event as one line.
//
//nolint:errcheck
func (p *Printer) PrintProgress(event pipeline.ProgressEvent) {
	fmt.Fprintf(p.out, "[%s] %s\n", event.Step, event.Message)
}

// PrintRecipe outputs a human-readable summary of a recipe.
func (p *Printer) PrintRecipe(r *types.Recipe) {
	if r == nil {
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Prep time:  %d minutes\n", r.PrepTime.Minutes())
	if r.Difficulty != "" {
		fmt.Fprintf(&sb, "Difficulty: %s\n", r.Difficulty)
	}
	fmt.Fprintf(&sb, "Feeds:      %d\n", r.Feeds)
	if len(r.Cuisines) > 0 {
		fmt.Fprintf(&sb, "Cuisines:   %s\n", strings.Join(r.Cuisines, ", "))
	}
	if len(r.Tags) > 0 {
		fmt.Fprintf(&sb, "Tags:       %s\n", strings.Join(r.Tags, ", "))
	}
	if len(r.Allergies) > 0 {
		fmt.Fprintf(&sb, "Allergens:  %s\n", strings.Join(r.Allergies, ", "))
	}
	if len(r.Utensils) > 0 {
		fmt.Fprintf(&sb, "Utensils:   %s\n", strings.Join(r.Utensils, ", "))
	}

	if len(r.IngredientAmounts) > 0 {
		sb.WriteString("\nIngredients:\n")
		for _, ia := range r.IngredientAmounts {
			line := grocery.Line{Amount: ia.Amount, Unit: ia.Unit, Food: ia.Ingredient.Food}
			fmt.Fprintf(&sb, "  • %s\n", line)
			// own line so long blend names are not cut by the box
			if ia.Ingredient.ParentRecipe != "" {
				fmt.Fprintf(&sb, "      (see %s)\n", ia.Ingredient.ParentRecipe)
			}
		}
	}

	if len(r.Nutrition) > 0 {
		sb.WriteString("\nNutrition:\n")
		for _, name := range r.NutrientNames() {
			fmt.Fprintf(&sb, "  %s: %s\n", name, r.Nutrition[name])
		}
	}

	p.printBox(strings.ToUpper(r.Title), strings.TrimSuffix(sb.String(), "\n"))
}

// PrintRunSummary outputs the counts of a finished scrape and the first few
// rejected pages.
func (p *Printer) PrintRunSummary(res *pipeline.Result) {
	if res == nil {
		return
	}

	var sb strings.Builder
	if res.RunID != uuid.Nil {
		fmt.Fprintf(&sb, "Run:       %s\n", res.RunID)
	}
	fmt.Fprintf(&sb, "Cuisines:  %d\n", len(res.Cuisines))
	fmt.Fprintf(&sb, "Recipes:   %d\n", len(res.Recipes))
	fmt.Fprintf(&sb, "Rejected:  %d\n", len(res.Rejected))
	fmt.Fprintf(&sb, "Saved:     %d\n", res.Saved)
	if res.Partial {
		sb.WriteString("Status:    partial (cancelled)\n")
	}

	if len(res.Rejected) > 0 {
		sb.WriteString("\n")
		sb.WriteString(formatRejections(res.Rejected))
	}

	p.printBox("SCRAPE SUMMARY", strings.TrimSuffix(sb.String(), "\n"))
}

func formatRejections(outcomes []assembly.Outcome) string {
	var sb strings.Builder
	sb.WriteString("Rejected pages:\n")
	count := min(len(outcomes), maxItemsToShow)
	for i := 0; i < count; i++ {
		out := outcomes[i]
		fmt.Fprintf(&sb, "  • %s (%s)\n", out.Path, out.FailedAt)
	}
	if len(outcomes) > maxItemsToShow {
		fmt.Fprintf(&sb, "  ... and %d more\n", len(outcomes)-maxItemsToShow)
	}
	return sb.String()
}

// PrintRecipeTable renders recipe summaries as a table.
func (p *Printer) PrintRecipeTable(summaries []db.RecipeSummary) {
	t := table.NewWriter()
	t.SetOutputMirror(p.out)
	t.AppendHeader(table.Row{"Title", "Prep (min)", "Difficulty", "Feeds", "Ingredients"})

	for _, s := range summaries {
		t.AppendRow(table.Row{s.Title, s.PrepTime, s.Difficulty, s.Feeds, s.IngredientCount})
	}
	t.AppendFooter(table.Row{fmt.Sprintf("%d recipes", len(summaries))})

	t.SetStyle(table.StyleRounded)
	t.Render()
}

// PrintGroceryList renders a combined grocery list as a table.
func (p *Printer) PrintGroceryList(lines []grocery.Line) {
	t := table.NewWriter()
	t.SetOutputMirror(p.out)
	t.AppendHeader(table.Row{"Amount", "Unit", "Food"})

	for _, l := range lines {
		t.AppendRow(table.Row{grocery.FormatAmount(l.Amount), l.Unit, l.Food})
	}

	t.SetStyle(table.StyleRounded)
	t.Render()
}
