package zoopla

import (
	"fmt"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

const searchPageHTML = `<html><body>
<ul class="listing-results clearfix">
  <li data-listing-id="A1"><a href="/for-sale/details/A1">2 bed flat</a></li>
  <li class="advert">Mortgage offers</li>
  <li data-listing-id="A2"><a href="/for-sale/details/A2">3 bed house</a></li>
</ul>
<div class="paginate bg-muted">
  <a href="?pn=1">1</a><a href="?pn=2">2</a><a href="?pn=2">Next</a><a href="?pn=5">5</a>
</div>
</body></html>`

// firstListedBlock is the original listing entry of propertyPageHTML's
// history sidebar.
const firstListedBlock = "<p><span>First listed</span><br/>\n  £450,000 on 15th Mar 2021</p>"

// withFirstListed swaps the original listing entry of a property page.
func withFirstListed(page, block string) string {
	return strings.Replace(page, firstListedBlock, block, 1)
}

// propertyPageHTML renders a detail page with one reduction per entry in
// reductions, each given as "<price text>|<date text>".
func propertyPageHTML(heading, address string, reductions ...string) string {
	var items strings.Builder
	for _, r := range reductions {
		parts := strings.SplitN(r, "|", 2)
		fmt.Fprintf(&items, "<li>%s <span>Reduced on: %s</span></li>\n", parts[0], parts[1])
	}
	return fmt.Sprintf(`<html><head>
<meta itemprop="latitude" content="51.5033">
<meta itemprop="longitude" content="-0.1276">
</head><body>
<h2 class="listing-details-h1">%s</h2>
<h2 itemprop="streetAddress">%s</h2>
<div class="sidebar sbt"><h3>Agent</h3><p>Call us</p></div>
<div class="sidebar sbt">
  <h3 class="top">Listing history</h3>
  %s
  <ul class="most_reduced_list">
%s  </ul>
</div>
</body></html>`, heading, address, firstListedBlock, items.String())
}

func mustDoc(t *testing.T, body string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return doc
}
