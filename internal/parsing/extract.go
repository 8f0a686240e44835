package parsing

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/net/html"
)

// BulletSeparator splits the entries of tag, allergen and utensil sections.
const BulletSeparator = "•"

// SectionKind identifies a bullet-delimited section of a recipe page.
type SectionKind int

const (
	// SectionTags is the "Tags" section
	SectionTags SectionKind = iota
	// SectionAllergens is the "Allergens" section
	SectionAllergens
	// SectionUtensils is the "Utensils" section
	SectionUtensils
)

func (k SectionKind) String() string {
	switch k {
	case SectionTags:
		return "tags"
	case SectionAllergens:
		return "allergens"
	case SectionUtensils:
		return "utensils"
	default:
		return fmt.Sprintf("section(%d)", int(k))
	}
}

// RawIngredient is an ingredient caption split into its text tokens.
type RawIngredient struct {
	Amount string
	Unit   string
	Food   string
}

// ExtractDelimitedList returns the distinct bullet-separated entries of the
// section labelled by anchor. A nil anchor means the page has no such
// section and yields an empty list.
func ExtractDelimitedList(anchor *html.Node, kind SectionKind) []string {
	if anchor == nil {
		return []string{}
	}

	var segments []string
	switch kind {
	case SectionTags, SectionAllergens:
		segments = strings.Split(Text(Next(anchor)), BulletSeparator)
	case SectionUtensils:
		segments = utensilSegments(anchor)
	}

	return distinct(segments)
}

// utensilSegments handles the utensil markup, which nests one level deeper
// than tags and allergens and puts the section label in the first segment.
func utensilSegments(anchor *html.Node) []string {
	var bullet *html.Node
	for n := Next(anchor); n != nil; n = Next(n) {
		if n.Data == "span" && Text(n) == BulletSeparator {
			bullet = n
			break
		}
	}
	if bullet == nil || bullet.Parent == nil || bullet.Parent.Parent == nil {
		return nil
	}

	segments := strings.Split(Text(bullet.Parent.Parent), BulletSeparator)
	if len(segments) < 2 {
		return nil
	}
	return segments[1:]
}

// ExtractIngredientAmount splits a caption on its first space into amount
// and unit, and reads the food name from the node after the caption.
func ExtractIngredientAmount(caption *html.Node) (RawIngredient, error) {
	text := Text(caption)
	amount, unit, found := strings.Cut(text, " ")
	if !found || amount == "" {
		return RawIngredient{}, &MalformedFieldError{
			Field: "ingredient caption",
			Value: text,
		}
	}

	return RawIngredient{
		Amount: amount,
		Unit:   strings.TrimSpace(unit),
		Food:   Text(Next(caption)),
	}, nil
}

// ExtractIngredients returns every ingredient listed after anchor, in page order.
func ExtractIngredients(anchor *html.Node) ([]RawIngredient, error) {
	ingredients := []RawIngredient{}
	for caption := range ScanIngredients(anchor) {
		ing, err := ExtractIngredientAmount(caption)
		if err != nil {
			return nil, err
		}
		ingredients = append(ingredients, ing)
	}
	return ingredients, nil
}

// ExtractNutrientFacts maps each lower-cased nutrient name after anchor to
// the text of its value node.
func ExtractNutrientFacts(anchor *html.Node) map[string]string {
	facts := make(map[string]string)
	for name := range ScanNutrients(anchor) {
		facts[strings.ToLower(Text(name))] = Text(Next(name))
	}
	return facts
}

func distinct(segments []string) []string {
	seen := make(map[string]struct{}, len(segments))
	out := make([]string, 0, len(segments))
	for _, s := range segments {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, exists := seen[s]; exists {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
