package parsing

import (
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Section anchor selectors. The site marks section labels with translation
// keys and a few containers with test ids; nothing else is stable.
const (
	SelectorTitle        = `h1[data-test-id="recipeDetailFragment.recipe-name"]`
	SelectorPrepTime     = `span[data-translation-id="recipe-detail.preparation-time"]`
	SelectorDifficulty   = `span[data-translation-id="recipe-detail.cooking-difficulty"]`
	SelectorTags         = `span[data-translation-id="recipe-detail.tags"]`
	SelectorAllergens    = `span[data-translation-id="recipe-detail.allergens"]`
	SelectorIngredients  = `span[data-translation-id="recipe-detail.ingredients"]`
	SelectorUtensils     = `span[data-translation-id="recipe-detail.utensils"]`
	SelectorInstructions = `a[data-test-id="recipeDetailFragment.instructions.downloadLink"]`
	SelectorNutrition    = `div[data-test-id="recipeDetailFragment.nutrition-values"]`
)

// Sections holds the anchor node of every known section. Absent sections are nil.
type Sections struct {
	Title        *html.Node
	PrepTime     *html.Node
	Difficulty   *html.Node
	Tags         *html.Node
	Allergens    *html.Node
	Ingredients  *html.Node
	Utensils     *html.Node
	Instructions *html.Node
	Nutrition    *html.Node
}

// RawRecipe is the field dict extracted from one page, before normalization.
type RawRecipe struct {
	Title           string
	PrepTime        string
	Difficulty      string
	GlamorShotURL   string
	InstructionsURL string
	Tags            []string
	Allergens       []string
	Utensils        []string
	Ingredients     []RawIngredient
	Nutrition       map[string]string
}

// NewDocument parses rendered HTML into a document.
func NewDocument(r io.Reader) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, &ParseError{Message: "failed to parse HTML", Cause: err}
	}
	return doc, nil
}

// FindSections locates the section anchors of a recipe page.
func FindSections(doc *goquery.Document) Sections {
	return Sections{
		Title:        firstNode(doc, SelectorTitle),
		PrepTime:     firstNode(doc, SelectorPrepTime),
		Difficulty:   firstNode(doc, SelectorDifficulty),
		Tags:         firstNode(doc, SelectorTags),
		Allergens:    firstNode(doc, SelectorAllergens),
		Ingredients:  firstNode(doc, SelectorIngredients),
		Utensils:     firstNode(doc, SelectorUtensils),
		Instructions: firstNode(doc, SelectorInstructions),
		Nutrition:    firstNode(doc, SelectorNutrition),
	}
}

// ParseDocument extracts the raw fields of a recipe page. Title and
// Ingredients are required; every other section may be absent.
func ParseDocument(doc *goquery.Document) (*RawRecipe, error) {
	sections := FindSections(doc)

	if sections.Title == nil {
		return nil, &MissingSectionError{Section: "title"}
	}
	if sections.Ingredients == nil {
		return nil, &MissingSectionError{Section: "ingredients"}
	}

	ingredients, err := ExtractIngredients(sections.Ingredients)
	if err != nil {
		return nil, err
	}

	name := Text(sections.Title)
	raw := &RawRecipe{
		Title:         fullTitle(sections.Title, sections),
		PrepTime:      valueAfter(sections.PrepTime),
		Difficulty:    valueAfter(sections.Difficulty),
		GlamorShotURL: glamorShot(doc, name),
		Tags:          ExtractDelimitedList(sections.Tags, SectionTags),
		Allergens:     ExtractDelimitedList(sections.Allergens, SectionAllergens),
		Utensils:      ExtractDelimitedList(sections.Utensils, SectionUtensils),
		Ingredients:   ingredients,
		Nutrition:     ExtractNutrientFacts(sections.Nutrition),
	}
	if sections.Instructions != nil {
		raw.InstructionsURL = Attr(sections.Instructions, "href")
	}

	return raw, nil
}

// fullTitle joins the recipe name with the text of the element that follows
// it, unless that element is itself a section anchor.
func fullTitle(title *html.Node, sections Sections) string {
	name := Text(title)
	next := Next(title)
	if next == nil || sections.isAnchor(next) {
		return name
	}
	if sub := Text(next); sub != "" {
		return name + " " + sub
	}
	return name
}

func (s Sections) isAnchor(n *html.Node) bool {
	for _, anchor := range []*html.Node{
		s.Title, s.PrepTime, s.Difficulty, s.Tags, s.Allergens,
		s.Ingredients, s.Utensils, s.Instructions, s.Nutrition,
	} {
		if anchor == n {
			return true
		}
	}
	return false
}

func valueAfter(anchor *html.Node) string {
	if anchor == nil {
		return ""
	}
	return Text(Next(anchor))
}

func glamorShot(doc *goquery.Document, title string) string {
	var src string
	doc.Find("img[alt]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		alt, _ := s.Attr("alt")
		if strings.TrimSpace(alt) != title {
			return true
		}
		src, _ = s.Attr("src")
		return false
	})
	return src
}

func firstNode(doc *goquery.Document, selector string) *html.Node {
	sel := doc.Find(selector).First()
	if sel.Length() == 0 {
		return nil
	}
	return sel.Nodes[0]
}

// Attr returns the value of the key attribute of n, or "" when absent.
func Attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
