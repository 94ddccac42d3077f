package ride

import (
	"strings"
	"time"
)

// SearchSort defines a supported ordering for ride search results.
type SearchSort string

const (
	SortByDeparture SearchSort = "departure_asc"
	SortByPriceAsc  SearchSort = "price_asc"
	SortByNewest    SearchSort = "newest"

	defaultSearchLimit = 24
	maxSearchLimit     = 60
)

// SearchParams describe ride browse filters and paging options.
type SearchParams struct {
	Driver        string
	Origin        string
	Destination   string
	DepartsAfter  time.Time
	DepartsBefore time.Time
	MinSeats      int
	States        []RideState
	OnlyScheduled bool
	Sort          SearchSort
	Limit         int
	Offset        int
}

// SearchResult carries one page of matches plus the total count.
type SearchResult struct {
	Items []*Ride
	Total int
}

// Normalized returns a sanitized copy of params.
func (p SearchParams) Normalized() SearchParams {
	normalized := p
	normalized.Origin = strings.TrimSpace(strings.ToLower(normalized.Origin))
	normalized.Destination = strings.TrimSpace(strings.ToLower(normalized.Destination))
	if normalized.MinSeats < 0 {
		normalized.MinSeats = 0
	}
	if !normalized.DepartsAfter.IsZero() && !normalized.DepartsBefore.IsZero() &&
		!normalized.DepartsBefore.After(normalized.DepartsAfter) {
		normalized.DepartsBefore = time.Time{}
	}
	if normalized.Limit <= 0 {
		normalized.Limit = defaultSearchLimit
	}
	if normalized.Limit > maxSearchLimit {
		normalized.Limit = maxSearchLimit
	}
	if normalized.Offset < 0 {
		normalized.Offset = 0
	}
	switch normalized.Sort {
	case SortByDeparture, SortByPriceAsc, SortByNewest:
	default:
		normalized.Sort = SortByDeparture
	}
	return normalized
}
