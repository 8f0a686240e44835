package types

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// fractionGlyphs maps unicode vulgar fractions to their decimal text.
var fractionGlyphs = strings.NewReplacer(
	"¼", ".25",
	"⅓", ".33",
	"½", ".50",
	"¾", ".75",
)

// Fold normalizes a string for collation-safe comparison: trimmed and lower-cased.
func Fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// SubstituteFractions replaces unicode fraction glyphs with decimal text.
// A lone glyph gains a leading zero so "¼" becomes "0.25" and "2½" becomes "2.50".
func SubstituteFractions(s string) string {
	out := fractionGlyphs.Replace(s)
	if strings.HasPrefix(out, ".") {
		out = "0" + out
	}
	return out
}

// ParseAmount parses an ingredient amount, substituting fraction glyphs first.
func ParseAmount(s string) (float64, error) {
	text := SubstituteFractions(strings.TrimSpace(s))
	if text == "" {
		return 0, fmt.Errorf("empty amount")
	}
	amount, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if amount < 0 {
		return 0, fmt.Errorf("invalid amount %q: negative", s)
	}
	return amount, nil
}

// HoursToMinutes normalizes a preparation time to minutes. Integers pass
// through; strings must look like "<N> hours" or "<N> minutes".
func HoursToMinutes(v any) (int, error) {
	switch t := v.(type) {
	case int:
		return t, nil
	case int64:
		return int(t), nil
	case PrepTime:
		return int(t), nil
	case string:
		return parseDuration(t)
	default:
		return 0, fmt.Errorf("unsupported prep time type %T", v)
	}
}

func parseDuration(s string) (int, error) {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return 0, fmt.Errorf("invalid prep time %q: expected \"<N> hours|minutes\"", s)
	}

	amount, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, fmt.Errorf("invalid prep time %q: %w", s, err)
	}

	switch Fold(fields[1]) {
	case "hours", "hour":
		return amount * 60, nil
	case "minutes", "minute", "min", "mins":
		return amount, nil
	default:
		return 0, fmt.Errorf("invalid prep time %q: unknown unit %q", s, fields[1])
	}
}

// NewSet folds, de-duplicates and sorts values. Empty values are dropped.
// The result is never nil.
func NewSet(values ...string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		folded := Fold(v)
		if folded == "" {
			continue
		}
		if _, exists := seen[folded]; exists {
			continue
		}
		seen[folded] = struct{}{}
		out = append(out, folded)
	}
	sort.Strings(out)
	return out
}
