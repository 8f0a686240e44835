package crawling

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jonathan/recipe-scraper/internal/parsing"
)

// ArchivePath is the recipe archive page that links every cuisine.
const ArchivePath = "/recipes"

// cuisineMarker identifies cuisine listing links on the archive page.
const cuisineMarker = "-cuisine"

// recipeImageSelector matches the card image of every recipe on a listing.
const recipeImageSelector = `img[data-test-id="recipe-image"]`

// regionPattern captures the last path segment up to its final hyphen:
// "/recipes/middle-eastern-cuisine" -> "middle-eastern".
var regionPattern = regexp.MustCompile(`.*/(.*)-.*`)

// Cuisine is a cuisine listing page and the region it covers.
type Cuisine struct {
	Region string
	Path   string
}

// RegionFromPath derives the cuisine region from a listing path.
func RegionFromPath(path string) (string, error) {
	if u, err := url.Parse(path); err == nil && u.Path != "" {
		path = u.Path
	}
	groups := regionPattern.FindStringSubmatch(path)
	if len(groups) < 2 || groups[1] == "" {
		return "", &LinkExtractionError{Message: "no region in cuisine path", Value: path}
	}
	return strings.ToLower(groups[1]), nil
}

// ExtractCuisineLinks returns every cuisine listing linked from the archive
// page, in page order, de-duplicated by path.
func ExtractCuisineLinks(doc *goquery.Document) ([]Cuisine, error) {
	if doc == nil {
		return nil, &LinkExtractionError{Message: "nil document"}
	}

	seen := make(map[string]bool)
	cuisines := make([]Cuisine, 0)

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if !strings.Contains(href, cuisineMarker) || seen[href] {
			return
		}

		region, err := RegionFromPath(href)
		if err != nil {
			return
		}
		seen[href] = true
		cuisines = append(cuisines, Cuisine{Region: region, Path: href})
	})

	return cuisines, nil
}

// ExtractRecipeLinks returns the recipe page link of every recipe card on a
// fully loaded listing page. The link is the href of the nearest anchor
// preceding the card image in document order.
func ExtractRecipeLinks(doc *goquery.Document) ([]string, error) {
	if doc == nil {
		return nil, &LinkExtractionError{Message: "nil document"}
	}

	seen := make(map[string]bool)
	links := make([]string, 0)

	doc.Find(recipeImageSelector).Each(func(_ int, s *goquery.Selection) {
		for n := parsing.Prev(s.Nodes[0]); n != nil; n = parsing.Prev(n) {
			if n.Data != "a" {
				continue
			}
			href := parsing.Attr(n, "href")
			if href != "" && !seen[href] {
				seen[href] = true
				links = append(links, href)
			}
			return
		}
	})

	return links, nil
}

// FilterRegions keeps the cuisines whose region is listed. An empty filter
// keeps everything.
func FilterRegions(cuisines []Cuisine, regions []string) []Cuisine {
	if len(regions) == 0 {
		return cuisines
	}

	want := make(map[string]bool, len(regions))
	for _, r := range regions {
		want[strings.ToLower(strings.TrimSpace(r))] = true
	}

	filtered := make([]Cuisine, 0, len(cuisines))
	for _, c := range cuisines {
		if want[c.Region] {
			filtered = append(filtered, c)
		}
	}
	return filtered
}
