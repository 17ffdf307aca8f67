package zoopla

// CSS selectors and labels for Zoopla search-result and property pages.
const (
	// Search results
	PaginationLinkSelector = "div.paginate.bg-muted a"
	ListingItemSelector    = "ul.listing-results.clearfix li"
	ListingIDAttr          = "data-listing-id"

	// Property details
	TypeHeadingSelector    = "h2.listing-details-h1"
	AddressHeadingSelector = `h2[itemprop="streetAddress"]`
	LatitudeSelector       = `meta[itemprop="latitude"]`
	LongitudeSelector      = `meta[itemprop="longitude"]`

	// Listing history sidebar
	SidebarSelector        = "div.sidebar.sbt"
	ReductionsListSelector = "ul.most_reduced_list"
	ReductionsSelector     = ReductionsListSelector + " li"
	HistoryHeading         = "Listing history"
	FirstListedLabel       = "First listed"
	ReducedOnLabel         = "Reduced on:"
	PriceDateSeparator     = " on"
	ForSaleSuffix          = " for sale"
	DefaultBeds            = "1 bed"
)
