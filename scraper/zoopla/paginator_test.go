package zoopla

import (
	"reflect"
	"testing"
)

func TestDiscoverPageCount(t *testing.T) {
	doc := mustDoc(t, searchPageHTML)
	if got := DiscoverPageCount(doc); got != 5 {
		t.Errorf("DiscoverPageCount = %d; want 5", got)
	}
}

func TestDiscoverPageCountDefaultsToOne(t *testing.T) {
	tests := []string{
		`<html><body><p>no pagination</p></body></html>`,
		`<div class="paginate bg-muted"><a>Next</a><a>Previous</a></div>`,
		`<div class="paginate"><a>9</a></div>`,
	}
	for _, body := range tests {
		if got := DiscoverPageCount(mustDoc(t, body)); got != 1 {
			t.Errorf("DiscoverPageCount(%q) = %d; want 1", body, got)
		}
	}
}

func TestPageRange(t *testing.T) {
	tests := []struct {
		max         int
		includeLast bool
		want        []int
	}{
		{5, false, []int{1, 2, 3, 4}},
		{5, true, []int{1, 2, 3, 4, 5}},
		{1, false, nil},
		{1, true, []int{1}},
		{0, true, nil},
	}
	for _, tt := range tests {
		got := PageRange(tt.max, tt.includeLast)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("PageRange(%d, %v) = %v; want %v", tt.max, tt.includeLast, got, tt.want)
		}
	}
}

func TestPageURL(t *testing.T) {
	got := PageURL("http://www.zoopla.co.uk/for-sale/property/london/?q=London", "&pn=", 3)
	want := "http://www.zoopla.co.uk/for-sale/property/london/?q=London&pn=3"
	if got != want {
		t.Errorf("PageURL = %q; want %q", got, want)
	}
}
