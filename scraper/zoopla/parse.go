package zoopla

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
)

var (
	// bedsRegexp captures the "<n> bed" phrase of a property heading
	bedsRegexp = regexp.MustCompile(`\d+ bed`)
	// digitRegexp marks the start of the day in a listing date
	digitRegexp = regexp.MustCompile(`\d`)
	// yearRegexp captures a run of at least four digits; the year is its last four
	yearRegexp = regexp.MustCompile(`\d{4,}`)
	// monthRegexp captures an abbreviated month name such as "Mar"
	monthRegexp = regexp.MustCompile(`[A-Z][a-z]{2}`)
	// numberRegexp captures a price-like number, thousands separators included
	numberRegexp = regexp.MustCompile(`\d[\d,]*`)
)

var months = map[string]time.Month{
	"Jan": time.January, "Feb": time.February, "Mar": time.March,
	"Apr": time.April, "May": time.May, "Jun": time.June,
	"Jul": time.July, "Aug": time.August, "Sep": time.September,
	"Oct": time.October, "Nov": time.November, "Dec": time.December,
}

// ErrNoNumber is returned when a price string holds no digits.
var ErrNoNumber = errors.New("no digits in text")

// ParseBeds splits a property heading such as "2 bed flat for sale" into the
// bed phrase ("2 bed") and the property type ("flat"). Headings without a bed
// phrase are assumed to describe a one-bedroom property.
func ParseBeds(heading string) (beds, propertyType string) {
	text := strings.Replace(heading, ForSaleSuffix, "", 1)

	beds = bedsRegexp.FindString(text)
	if beds == "" {
		beds = DefaultBeds
	}

	propertyType = strings.TrimSpace(strings.Replace(text, beds, "", 1))
	return beds, propertyType
}

// SplitAddress takes the last whitespace-delimited token of an address as its
// postcode. The returned address has every occurrence of that token removed
// and is not re-trimmed.
func SplitAddress(full string) (address, postcode string) {
	fields := strings.Fields(full)
	if len(fields) == 0 {
		return full, ""
	}
	postcode = fields[len(fields)-1]
	return strings.ReplaceAll(full, postcode, ""), postcode
}

// ParseListingDate reads a date written like "15th Mar 2021" or
// "15 - Mar - 2021". It returns nil when no valid calendar date can be read.
func ParseListingDate(text string) *time.Time {
	text = strings.ReplaceAll(text, "\n", "")

	loc := digitRegexp.FindStringIndex(text)
	if loc == nil {
		return nil
	}
	end := loc[0] + 2
	if end > len(text) {
		end = len(text)
	}
	day, err := strconv.Atoi(keepDigits(text[loc[0]:end]))
	if err != nil {
		return nil
	}

	yearRun := yearRegexp.FindString(text)
	if yearRun == "" {
		return nil
	}
	year, err := strconv.Atoi(yearRun[len(yearRun)-4:])
	if err != nil {
		return nil
	}

	month, ok := months[monthRegexp.FindString(text)]
	if !ok {
		return nil
	}

	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	// time.Date normalises overflow (31 Feb -> 3 Mar); treat that as invalid.
	if t.Day() != day || t.Month() != month {
		return nil
	}
	return &t
}

// SplitPriceDate parses the "£450,000 on 15th Mar 2021" text that follows the
// "First listed" label. Without the " on" separator the whole text is read as
// the price and the date is nil.
func SplitPriceDate(text string) (int64, *time.Time, error) {
	pricePart, datePart := text, ""
	if i := strings.Index(text, PriceDateSeparator); i >= 0 {
		pricePart = text[:i]
		datePart = text[i+len(PriceDateSeparator):]
	}

	price, err := joinedNumber(pricePart)
	if err != nil {
		return 0, nil, err
	}
	if datePart == "" {
		return price, nil, nil
	}
	return price, ParseListingDate(datePart), nil
}

// joinedNumber concatenates every digit in text: "£1,250,000" -> 1250000.
func joinedNumber(text string) (int64, error) {
	digits := keepDigits(text)
	if digits == "" {
		return 0, ErrNoNumber
	}
	return strconv.ParseInt(digits, 10, 64)
}

// firstNumber reads the first number in text, ignoring thousands separators.
func firstNumber(text string) (int64, error) {
	match := numberRegexp.FindString(text)
	if match == "" {
		return 0, ErrNoNumber
	}
	return strconv.ParseInt(strings.ReplaceAll(match, ",", ""), 10, 64)
}

func keepDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) && r < unicode.MaxASCII {
			b.WriteRune(r)
		}
	}
	return b.String()
}
