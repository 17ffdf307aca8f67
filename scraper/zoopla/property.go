package zoopla

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"zoopla-scraper/models"
)

var (
	// ErrElementMissing marks a property page lacking a required element.
	ErrElementMissing = errors.New("element missing")
	// ErrNoHistory marks a property page without a usable listing history.
	ErrNoHistory = errors.New("no listing history")
)

// ExtractProperty reads the static attributes and the price history of a
// property page. A page without coordinates fails outright; a page whose
// listing history is missing or malformed yields the events read so far with
// status partial.
func ExtractProperty(doc *goquery.Document, id, url string) models.PropertyResult {
	res := models.PropertyResult{ListingID: id, URL: url}
	fail := func(err error) models.PropertyResult {
		res.Status = models.StatusFailed
		res.Err = err
		return res
	}

	heading := doc.Find(TypeHeadingSelector).First()
	if heading.Length() == 0 {
		return fail(fmt.Errorf("%w: %s", ErrElementMissing, TypeHeadingSelector))
	}
	beds, propertyType := ParseBeds(strings.TrimSpace(heading.Text()))

	addressHeading := doc.Find(AddressHeadingSelector).First()
	if addressHeading.Length() == 0 {
		return fail(fmt.Errorf("%w: %s", ErrElementMissing, AddressHeadingSelector))
	}
	address, postcode := SplitAddress(strings.TrimSpace(addressHeading.Text()))

	lat, ok := doc.Find(LatitudeSelector).First().Attr("content")
	if !ok {
		return fail(fmt.Errorf("%w: %s", ErrElementMissing, LatitudeSelector))
	}
	lon, ok := doc.Find(LongitudeSelector).First().Attr("content")
	if !ok {
		return fail(fmt.Errorf("%w: %s", ErrElementMissing, LongitudeSelector))
	}

	base := models.PriceEvent{
		ListingID: id,
		Beds:      beds,
		Type:      propertyType,
		Postcode:  postcode,
		Address:   address,
		Latitude:  lat,
		Longitude: lon,
		URL:       url,
	}

	res.Events, res.Err = extractHistory(doc, base)
	if res.Err != nil {
		res.Status = models.StatusPartial
	} else {
		res.Status = models.StatusOK
	}
	return res
}

// extractHistory returns the original listing event followed by one event per
// price reduction. On error the events built before it are returned.
func extractHistory(doc *goquery.Document, base models.PriceEvent) ([]*models.PriceEvent, error) {
	sidebar := historySidebar(doc)
	if sidebar == nil {
		return nil, ErrNoHistory
	}

	label := findText(sidebar, FirstListedLabel)
	if label == nil {
		return nil, fmt.Errorf("%w: %q label", ErrNoHistory, FirstListedLabel)
	}
	priceDate := priceDateText(sidebar, label)
	if priceDate == "" {
		return nil, fmt.Errorf("%w: no price after %q", ErrNoHistory, FirstListedLabel)
	}
	originalPrice, firstListed, err := SplitPriceDate(priceDate)
	if err != nil {
		return nil, fmt.Errorf("original price: %w", err)
	}

	original := base
	original.RowKey = rowKey(base.ListingID, 0)
	original.FirstListed = firstListed
	original.OriginalPrice = originalPrice
	events := []*models.PriceEvent{&original}

	var itemErr error
	sidebar.Find(ReductionsSelector).EachWithBreak(func(i int, item *goquery.Selection) bool {
		span := item.Find("span").First()
		if span.Length() == 0 {
			itemErr = fmt.Errorf("reduction %d: %w: span", i+1, ErrElementMissing)
			return false
		}
		dateText := strings.ReplaceAll(span.Text(), ReducedOnLabel, "")

		newPrice, err := firstNumber(ownText(item))
		if err != nil {
			itemErr = fmt.Errorf("reduction %d: new price: %w", i+1, err)
			return false
		}

		change := original
		change.RowKey = rowKey(base.ListingID, len(events))
		change.ChangeDate = ParseListingDate(dateText)
		change.NewPrice = &newPrice
		events = append(events, &change)
		return true
	})

	return events, itemErr
}

func rowKey(id string, seq int) string {
	return id + "_" + strconv.Itoa(seq)
}

// historySidebar returns the first sidebar section headed "Listing history".
func historySidebar(doc *goquery.Document) *goquery.Selection {
	var found *goquery.Selection
	doc.Find(SidebarSelector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if findText(s, HistoryHeading) != nil {
			found = s
			return false
		}
		return true
	})
	return found
}

// findText returns the first text node under s whose trimmed content equals
// text, whether it sits in its own element or loose inside a block.
func findText(s *goquery.Selection, text string) *html.Node {
	for _, root := range s.Nodes {
		if n := findTextNode(root, text); n != nil {
			return n
		}
	}
	return nil
}

func findTextNode(n *html.Node, text string) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode && strings.TrimSpace(c.Data) == text {
			return c
		}
		if found := findTextNode(c, text); found != nil {
			return found
		}
	}
	return nil
}

// priceDateText returns the first non-blank text following label inside its
// block. A label alone in its element (<span>First listed</span>) is read from
// that element's position. The scan never leaves the block and stops at the
// reductions list, so "" means the page has no original price.
func priceDateText(sidebar *goquery.Selection, label *html.Node) string {
	anchor := label
	if anchor.PrevSibling == nil && anchor.NextSibling == nil && anchor.Parent != sidebar.Nodes[0] {
		anchor = anchor.Parent
	}

	for n := anchor.NextSibling; n != nil; n = n.NextSibling {
		switch n.Type {
		case html.TextNode:
			if t := strings.TrimSpace(n.Data); t != "" {
				return t
			}
		case html.ElementNode:
			el := sidebar.FindNodes(n)
			if el.Is(ReductionsListSelector) || el.Find(ReductionsListSelector).Length() > 0 {
				return ""
			}
			if t := strings.TrimSpace(el.Text()); t != "" {
				return t
			}
		}
	}
	return ""
}

// ownText concatenates the text nodes directly under the selection's first
// node, leaving out text of child elements.
func ownText(s *goquery.Selection) string {
	if s.Length() == 0 {
		return ""
	}
	var b strings.Builder
	for n := s.Nodes[0].FirstChild; n != nil; n = n.NextSibling {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
	}
	return b.String()
}
