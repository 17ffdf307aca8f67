package zoopla

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DiscoverPageCount returns the highest page number linked from the
// pagination controls of a search-results page, or 1 when none parses.
// Links such as "Next" are ignored.
func DiscoverPageCount(doc *goquery.Document) int {
	maxPage := 1
	doc.Find(PaginationLinkSelector).Each(func(_ int, link *goquery.Selection) {
		n, err := strconv.Atoi(strings.TrimSpace(link.Text()))
		if err != nil {
			return
		}
		if n > maxPage {
			maxPage = n
		}
	})
	return maxPage
}

// PageRange lists the result pages to visit. The highest discovered page is
// left out unless includeLast is set, so a single-page search yields nothing
// by default.
func PageRange(maxPage int, includeLast bool) []int {
	last := maxPage - 1
	if includeLast {
		last = maxPage
	}
	if last < 1 {
		return nil
	}
	pages := make([]int, 0, last)
	for n := 1; n <= last; n++ {
		pages = append(pages, n)
	}
	return pages
}

// PageURL appends the page parameter to the search URL.
func PageURL(searchURL, pageParam string, page int) string {
	return searchURL + pageParam + strconv.Itoa(page)
}
