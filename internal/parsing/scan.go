// Package parsing walks rendered recipe pages and pulls out the fields the
// site never marks with stable attributes: ingredients, nutrition facts and
// bullet-separated lists.
package parsing

import (
	"iter"
	"strings"

	"golang.org/x/net/html"
)

// Sentinel phrases that end a scan.
const (
	IngredientsSentinel = "Not included in your delivery"
	NutrientsSentinel   = "Due to the different suppliers"
	regionDisclaimer    = "depending on your region."
)

// nutrientChrome are lower-cased substrings of section labels that sit
// between nutrient name/value pairs.
var nutrientChrome = []string{"nutri", "serving", "arrow"}

// ScanRule parameterizes Scan.
//
// Lookahead is the number of document-order steps from a matching node to
// the node that is yielded. Advance is the number of steps consumed after a
// yield without being classified.
type ScanRule struct {
	Stop      func(n *html.Node) bool
	Match     func(n *html.Node) bool
	Lookahead int
	Advance   int
}

// Next returns the element following n in document order, or nil at the end
// of the document.
func Next(n *html.Node) *html.Node {
	for n = step(n); n != nil; n = step(n) {
		if n.Type == html.ElementNode {
			return n
		}
	}
	return nil
}

// step is one pre-order step over every node type.
func step(n *html.Node) *html.Node {
	if n == nil {
		return nil
	}
	if n.FirstChild != nil {
		return n.FirstChild
	}
	for ; n != nil; n = n.Parent {
		if n.NextSibling != nil {
			return n.NextSibling
		}
	}
	return nil
}

// Prev returns the element preceding n in document order, or nil.
// Ancestors precede their descendants.
func Prev(n *html.Node) *html.Node {
	for n != nil {
		if n.PrevSibling == nil {
			n = n.Parent
		} else {
			n = n.PrevSibling
			for n.LastChild != nil {
				n = n.LastChild
			}
		}
		if n != nil && n.Type == html.ElementNode {
			return n
		}
	}
	return nil
}

// advance takes k Next steps from n.
func advance(n *html.Node, k int) *html.Node {
	for i := 0; i < k && n != nil; i++ {
		n = Next(n)
	}
	return n
}

// Scan walks forward from anchor and yields nodes selected by rule. The walk
// ends at a node satisfying rule.Stop or at the end of the document. A nil
// anchor yields nothing.
func Scan(anchor *html.Node, rule ScanRule) iter.Seq[*html.Node] {
	return func(yield func(*html.Node) bool) {
		if anchor == nil {
			return
		}

		for n := Next(anchor); n != nil; n = Next(n) {
			if rule.Stop != nil && rule.Stop(n) {
				return
			}
			if rule.Match != nil && !rule.Match(n) {
				continue
			}

			item := advance(n, rule.Lookahead)
			if item == nil {
				return
			}
			if !yield(item) {
				return
			}

			n = advance(n, rule.Advance)
			if n == nil {
				return
			}
		}
	}
}

// IngredientRule yields the caption two steps past every ingredient image.
var IngredientRule = ScanRule{
	Stop: func(n *html.Node) bool {
		return Text(n) == IngredientsSentinel
	},
	Match: func(n *html.Node) bool {
		return n.Data == "img"
	},
	Lookahead: 2,
}

// NutrientRule yields nutrient name spans. The value span that follows each
// name is skipped so it is never read as the next name.
var NutrientRule = ScanRule{
	Stop: func(n *html.Node) bool {
		return strings.HasPrefix(Text(n), NutrientsSentinel)
	},
	Match: func(n *html.Node) bool {
		if n.Data != "span" {
			return false
		}
		text := Text(n)
		if strings.HasSuffix(text, regionDisclaimer) {
			return false
		}
		lower := strings.ToLower(text)
		for _, chrome := range nutrientChrome {
			if strings.Contains(lower, chrome) {
				return false
			}
		}
		return true
	},
	Advance: 1,
}

// ScanIngredients yields the caption node of each ingredient after anchor.
func ScanIngredients(anchor *html.Node) iter.Seq[*html.Node] {
	return Scan(anchor, IngredientRule)
}

// ScanNutrients yields the name node of each nutrition fact after anchor.
func ScanNutrients(anchor *html.Node) iter.Seq[*html.Node] {
	return Scan(anchor, NutrientRule)
}

// Text returns the whitespace-collapsed text content of n and its descendants.
func Text(n *html.Node) string {
	if n == nil {
		return ""
	}
	var sb strings.Builder
	collectText(n, &sb)
	return strings.Join(strings.Fields(sb.String()), " ")
}

func collectText(n *html.Node, sb *strings.Builder) {
	if n.Type == html.TextNode {
		sb.WriteString(n.Data)
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, sb)
	}
}
