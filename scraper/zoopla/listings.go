package zoopla

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ExtractListingIDs returns the listing ids of a search-results page in
// document order. Items without an id (adverts, banners) are skipped;
// duplicates are kept.
func ExtractListingIDs(doc *goquery.Document) []string {
	var ids []string
	doc.Find(ListingItemSelector).Each(func(_ int, item *goquery.Selection) {
		if id, ok := item.Attr(ListingIDAttr); ok {
			ids = append(ids, id)
		}
	})
	return ids
}

// PropertyURL fills the listing id into the property URL template.
func PropertyURL(template, placeholder, id string) string {
	return strings.ReplaceAll(template, placeholder, id)
}
