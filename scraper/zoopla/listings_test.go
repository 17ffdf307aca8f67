package zoopla

import (
	"reflect"
	"testing"
)

func TestExtractListingIDs(t *testing.T) {
	got := ExtractListingIDs(mustDoc(t, searchPageHTML))
	want := []string{"A1", "A2"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractListingIDs = %v; want %v", got, want)
	}
}

func TestExtractListingIDsKeepsDuplicates(t *testing.T) {
	body := `<ul class="listing-results clearfix">
<li data-listing-id="B9"></li><li data-listing-id="B9"></li></ul>`
	got := ExtractListingIDs(mustDoc(t, body))
	if len(got) != 2 {
		t.Errorf("ExtractListingIDs = %v; want the duplicate kept", got)
	}
}

func TestExtractListingIDsIgnoresOtherLists(t *testing.T) {
	body := `<ul class="related"><li data-listing-id="X1"></li></ul>`
	if got := ExtractListingIDs(mustDoc(t, body)); len(got) != 0 {
		t.Errorf("ExtractListingIDs = %v; want none", got)
	}
}

func TestPropertyURL(t *testing.T) {
	got := PropertyURL("http://www.zoopla.co.uk/for-sale/details/IDENTIFIER", "IDENTIFIER", "47281934")
	if got != "http://www.zoopla.co.uk/for-sale/details/47281934" {
		t.Errorf("PropertyURL = %q", got)
	}
}
