package zoopla

import (
	"strings"
	"testing"
	"time"
)

func TestParseBeds(t *testing.T) {
	tests := []struct {
		heading  string
		wantBeds string
		wantType string
	}{
		{"2 bed flat for sale", "2 bed", "flat"},
		{"10 bed detached house for sale", "10 bed", "detached house"},
		{"Studio for sale", "1 bed", "Studio"},
		{"3 bed", "3 bed", ""},
		{"Land for sale", "1 bed", "Land"},
	}

	for _, tt := range tests {
		beds, typ := ParseBeds(tt.heading)
		if beds != tt.wantBeds || typ != tt.wantType {
			t.Errorf("ParseBeds(%q) = (%q, %q); want (%q, %q)",
				tt.heading, beds, typ, tt.wantBeds, tt.wantType)
		}
		if tt.wantBeds != DefaultBeds && strings.Contains(typ, tt.wantBeds) {
			t.Errorf("ParseBeds(%q): type %q still holds the bed phrase", tt.heading, typ)
		}
		if strings.Contains(typ, ForSaleSuffix) {
			t.Errorf("ParseBeds(%q): type %q still holds %q", tt.heading, typ, ForSaleSuffix)
		}
	}
}

func TestSplitAddress(t *testing.T) {
	tests := []struct {
		full         string
		wantAddress  string
		wantPostcode string
	}{
		{"Whitehall, London SW1A", "Whitehall, London ", "SW1A"},
		{"Flat 4, Mare Street, Hackney E8", "Flat 4, Mare Street, Hackney ", "E8"},
		{"N1", "", "N1"},
		{"", "", ""},
	}

	for _, tt := range tests {
		addr, pc := SplitAddress(tt.full)
		if addr != tt.wantAddress || pc != tt.wantPostcode {
			t.Errorf("SplitAddress(%q) = (%q, %q); want (%q, %q)",
				tt.full, addr, pc, tt.wantAddress, tt.wantPostcode)
		}
	}
}

func TestParseListingDate(t *testing.T) {
	tests := []struct {
		text string
		want *time.Time
	}{
		{"15 - Mar - 2021", day(2021, time.March, 15)},
		{" 15th Mar 2021", day(2021, time.March, 15)},
		{"\n 2nd\n Jun 2019", day(2019, time.June, 2)},
		{"5 Dec 2020", day(2020, time.December, 5)},
		{"no date here", nil},
		{"15 - 2021", nil},
		{"15 Mar", nil},
		{"31st Feb 2021", nil},
		{"15 Foo 2021", nil},
	}

	for _, tt := range tests {
		got := ParseListingDate(tt.text)
		switch {
		case tt.want == nil && got != nil:
			t.Errorf("ParseListingDate(%q) = %v; want nil", tt.text, *got)
		case tt.want != nil && got == nil:
			t.Errorf("ParseListingDate(%q) = nil; want %v", tt.text, *tt.want)
		case tt.want != nil && !got.Equal(*tt.want):
			t.Errorf("ParseListingDate(%q) = %v; want %v", tt.text, *got, *tt.want)
		}
	}
}

func TestParseListingDateIsStable(t *testing.T) {
	a := ParseListingDate("15 - Mar - 2021")
	b := ParseListingDate("15 - Mar - 2021")
	if a == nil || b == nil || !a.Equal(*b) {
		t.Errorf("repeated parses differ: %v vs %v", a, b)
	}
}

func TestSplitPriceDate(t *testing.T) {
	price, date, err := SplitPriceDate("£1,250,000 on 3rd Jan 2022")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if price != 1250000 {
		t.Errorf("price: got %d, want 1250000", price)
	}
	if date == nil || !date.Equal(*day(2022, time.January, 3)) {
		t.Errorf("date: got %v, want 2022-01-03", date)
	}

	price, date, err = SplitPriceDate("£300,000")
	if err != nil || price != 300000 || date != nil {
		t.Errorf("SplitPriceDate without date = (%d, %v, %v)", price, date, err)
	}

	if _, _, err := SplitPriceDate("POA on 3rd Jan 2022"); err == nil {
		t.Error("expected an error for a price without digits")
	}
}

func TestFirstNumber(t *testing.T) {
	tests := []struct {
		text string
		want int64
		ok   bool
	}{
		{"£425,000 ", 425000, true},
		{"\n £1,100,000 (-8%)", 1100000, true},
		{"Price on application", 0, false},
	}
	for _, tt := range tests {
		got, err := firstNumber(tt.text)
		if (err == nil) != tt.ok || got != tt.want {
			t.Errorf("firstNumber(%q) = (%d, %v); want %d ok=%v", tt.text, got, err, tt.want, tt.ok)
		}
	}
}

func day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}
