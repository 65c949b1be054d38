package listing

import (
	"cmp"
	"slices"
)

// Sort orders ls in place by sortBy, then moves listings of pinnedAgent to the
// front. Both passes are stable.
func Sort(ls []Listing, sortBy, pinnedAgent string) {
	slices.SortStableFunc(ls, compareBy(sortBy))
	if pinnedAgent == "" {
		return
	}
	slices.SortStableFunc(ls, func(a, b Listing) int {
		ap, bp := a.AgentID == pinnedAgent, b.AgentID == pinnedAgent
		switch {
		case ap && !bp:
			return -1
		case !ap && bp:
			return 1
		}
		return 0
	})
}

func compareBy(sortBy string) func(a, b Listing) int {
	switch sortBy {
	case "price-low-high":
		return func(a, b Listing) int { return cmp.Compare(a.Price, b.Price) }
	case "price-high-low":
		return func(a, b Listing) int { return cmp.Compare(b.Price, a.Price) }
	case "bedrooms":
		return func(a, b Listing) int { return cmp.Compare(b.Bedrooms, a.Bedrooms) }
	case "bathrooms":
		return func(a, b Listing) int { return cmp.Compare(b.Bathrooms, a.Bathrooms) }
	case "sqft":
		return func(a, b Listing) int { return cmp.Compare(b.Sqft, a.Sqft) }
	default: // newest
		return func(a, b Listing) int { return cmp.Compare(a.DaysOnMarket, b.DaysOnMarket) }
	}
}

type Pagination struct {
	CurrentPage  int  `json:"currentPage"`
	TotalPages   int  `json:"totalPages"`
	TotalItems   int  `json:"totalItems"`
	ItemsPerPage int  `json:"itemsPerPage"`
	HasNext      bool `json:"hasNext"`
	HasPrev      bool `json:"hasPrev"`
}

type Page struct {
	Items      []Listing  `json:"items"`
	Pagination Pagination `json:"pagination"`
}

// Paginate slices items for a 1-based page. Page < 1 is treated as 1, limit
// defaults to DefaultLimit and is capped at MaxLimit. A page past the end is
// empty but still reports the totals.
func Paginate(items []Listing, page, limit int) Page {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	total := len(items)
	totalPages := (total + limit - 1) / limit
	start, end := total, total
	if page-1 <= total/limit {
		start = min((page-1)*limit, total)
		end = min(start+limit, total)
	}
	out := make([]Listing, end-start)
	copy(out, items[start:end])
	return Page{
		Items: out,
		Pagination: Pagination{
			CurrentPage:  page,
			TotalPages:   totalPages,
			TotalItems:   total,
			ItemsPerPage: limit,
			HasNext:      page < totalPages,
			HasPrev:      page > 1,
		},
	}
}
