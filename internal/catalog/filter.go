package catalog

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// HomePageSize is the number of products requested by the home screen.
	HomePageSize = 30
	// DiscoverPageSize is used by the discover and search screens.
	DiscoverPageSize = 50
)

// ProductFilter holds the optional query fields understood by the products endpoint.
// A nil field is left out of the request entirely.
type ProductFilter struct {
	Title      *string
	Price      *decimal.Decimal
	PriceMin   *decimal.Decimal
	PriceMax   *decimal.Decimal
	CategoryID *int
	Limit      *int
	Offset     *int
}

// Values encodes the present fields as query parameters. A blank title counts as absent.
func (f ProductFilter) Values() url.Values {
	v := url.Values{}
	if f.Title != nil {
		if title := strings.TrimSpace(*f.Title); title != "" {
			v.Set("title", title)
		}
	}
	if f.Price != nil {
		v.Set("price", f.Price.String())
	}
	if f.PriceMin != nil {
		v.Set("price_min", f.PriceMin.String())
	}
	if f.PriceMax != nil {
		v.Set("price_max", f.PriceMax.String())
	}
	if f.CategoryID != nil {
		v.Set("categoryId", strconv.Itoa(*f.CategoryID))
	}
	if f.Limit != nil {
		v.Set("limit", strconv.Itoa(*f.Limit))
	}
	if f.Offset != nil {
		v.Set("offset", strconv.Itoa(*f.Offset))
	}
	return v
}

// IsEmpty reports whether no field would be encoded.
func (f ProductFilter) IsEmpty() bool {
	return len(f.Values()) == 0
}

// WithLimit returns a copy of f with the page size set.
func (f ProductFilter) WithLimit(limit int) ProductFilter {
	f.Limit = &limit
	return f
}

// BrowseQuery is the state of the discover screen controls.
type BrowseQuery struct {
	Search     string
	CategoryID *int
	PriceMin   *decimal.Decimal
	PriceMax   *decimal.Decimal
	Limit      int
}

// Narrowed reports whether any search or filter control is set.
func (q BrowseQuery) Narrowed() bool {
	return strings.TrimSpace(q.Search) != "" || q.CategoryID != nil || q.PriceMin != nil || q.PriceMax != nil
}

// Filter flattens every set control into one combined request.
func (q BrowseQuery) Filter() ProductFilter {
	limit := q.Limit
	if limit <= 0 {
		limit = DiscoverPageSize
	}
	f := ProductFilter{
		CategoryID: q.CategoryID,
		PriceMin:   q.PriceMin,
		PriceMax:   q.PriceMax,
	}
	if search := strings.TrimSpace(q.Search); search != "" {
		f.Title = &search
	}
	return f.WithLimit(limit)
}
