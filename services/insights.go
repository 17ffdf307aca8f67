package services

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"zoopla-scraper/models"
	"zoopla-scraper/utils"
)

type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

// Generate summarises a price-event table. Static attributes are taken from
// the first event seen for each listing.
func (s *InsightService) Generate(events []*models.PriceEvent) *models.InsightReport {
	report := &models.InsightReport{
		EventsByPostcode: make(map[string]int),
		PropertiesByType: make(map[string]int),
	}

	if len(events) == 0 {
		return report
	}

	report.TotalEvents = len(events)

	properties := make(map[string]*models.PriceEvent)
	reduced := make(map[string]struct{})
	var originalPrices []int64
	var pctTotal float64
	var pctCount int

	for _, e := range events {
		if _, seen := properties[e.ListingID]; !seen {
			properties[e.ListingID] = e
			if e.Type != "" {
				report.PropertiesByType[e.Type]++
			}
			if e.OriginalPrice > 0 {
				originalPrices = append(originalPrices, e.OriginalPrice)
			}
		}
		if e.Postcode != "" {
			report.EventsByPostcode[e.Postcode]++
		}

		if !e.IsReduction() {
			continue
		}
		report.Reductions++
		reduced[e.ListingID] = struct{}{}

		drop := e.OriginalPrice - *e.NewPrice
		if report.BiggestDrop == nil || drop > report.BiggestDropAmount {
			report.BiggestDrop = e
			report.BiggestDropAmount = drop
		}
		if e.OriginalPrice > 0 {
			pctTotal += float64(drop) / float64(e.OriginalPrice) * 100
			pctCount++
		}
	}

	report.TotalProperties = len(properties)
	report.ReducedProperties = len(reduced)
	if pctCount > 0 {
		report.AverageReductionPct = round2(pctTotal / float64(pctCount))
	}
	report.MedianOriginalPrice = median(originalPrices)

	s.logger.Debug("[insights] %d events over %d properties", report.TotalEvents, report.TotalProperties)
	return report
}

func (s *InsightService) Print(w io.Writer, r *models.InsightReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(w, "\033[1;35m  ZOOPLA SCRAPE INSIGHTS\033[0m\n")
	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)

	// Overview
	fmt.Fprintf(w, "\033[1;33m  Overview\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Properties             : \033[1m%d\033[0m\n", r.TotalProperties)
	fmt.Fprintf(w, "  Price events           : \033[1m%d\033[0m\n", r.TotalEvents)
	fmt.Fprintf(w, "  Reductions             : \033[1m%d\033[0m across %d properties\n",
		r.Reductions, r.ReducedProperties)
	fmt.Fprintln(w)

	// Price Stats
	fmt.Fprintf(w, "\033[1;33m  Price Statistics\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if r.MedianOriginalPrice > 0 {
		fmt.Fprintf(w, "  Median asking price    : \033[1;32m£%s\033[0m\n", thousands(r.MedianOriginalPrice))
	} else {
		fmt.Fprintf(w, "  No price data available\n")
	}
	if r.Reductions > 0 {
		fmt.Fprintf(w, "  Average reduction      : \033[1;32m%.2f%%\033[0m\n", r.AverageReductionPct)
	}
	fmt.Fprintln(w)

	if r.BiggestDrop != nil {
		fmt.Fprintf(w, "\033[1;33m  Biggest Reduction\033[0m\n")
		fmt.Fprintf(w, "  %s\n", thin)
		fmt.Fprintf(w, "  %s\n", truncate(r.BiggestDrop.Beds+" "+r.BiggestDrop.Type+", "+
			strings.TrimSpace(r.BiggestDrop.Address)+" "+r.BiggestDrop.Postcode, 50))
		fmt.Fprintf(w, "  £%s -> £%s (\033[1;31m-£%s\033[0m)\n",
			thousands(r.BiggestDrop.OriginalPrice), thousands(*r.BiggestDrop.NewPrice),
			thousands(r.BiggestDropAmount))
		fmt.Fprintf(w, "  %s\n", r.BiggestDrop.URL)
		fmt.Fprintln(w)
	}

	printCounts(w, "Price Events by Postcode", r.EventsByPostcode, thin)
	printCounts(w, "Properties by Type", r.PropertiesByType, thin)

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n\n", sep)
}

func printCounts(w io.Writer, title string, counts map[string]int, thin string) {
	fmt.Fprintf(w, "\033[1;33m  %s\033[0m\n", title)
	fmt.Fprintf(w, "  %s\n", thin)
	if len(counts) == 0 {
		fmt.Fprintf(w, "  No data\n")
		fmt.Fprintln(w)
		return
	}

	type keyCount struct {
		key   string
		count int
	}
	var rows []keyCount
	for k, c := range counts {
		rows = append(rows, keyCount{k, c})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].count != rows[j].count {
			return rows[i].count > rows[j].count
		}
		return rows[i].key < rows[j].key
	})
	if len(rows) > 10 {
		rows = rows[:10]
	}
	for _, kc := range rows {
		bar := strings.Repeat("█", min(kc.count, 30))
		fmt.Fprintf(w, "  %-30s %s (%d)\n", truncate(kc.key, 28), bar, kc.count)
	}
	fmt.Fprintln(w)
}

func median(values []int64) int64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]int64(nil), values...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// thousands formats 1250000 as "1,250,000".
func thousands(n int64) string {
	sign := ""
	if n < 0 {
		sign, n = "-", -n
	}
	s := fmt.Sprintf("%d", n)
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	return sign + s
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
