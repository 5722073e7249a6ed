package domain

import (
	"fmt"
	"math"
)

// DefaultPageSize is the number of places shown per listing page.
const DefaultPageSize = 4

// PaginationParams carries page/limit values from the HTTP layer to the repo layer.
// Page is 1-indexed.
type PaginationParams struct {
	// Page is the current page number, starting at 1.
	Page int
	// Limit is the maximum number of items to return.
	Limit int
}

// NewPaginationParams builds a PaginationParams from optional values.
// Nil or non-positive values fall back to page=1 and limit=DefaultPageSize.
// The limit is capped at 100 to prevent runaway queries.
func NewPaginationParams(page, limit *int) PaginationParams {
	p := PaginationParams{Page: 1, Limit: DefaultPageSize}
	if page != nil && *page >= 1 {
		p.Page = *page
	}
	if limit != nil && *limit >= 1 {
		p.Limit = *limit
		if p.Limit > 100 {
			p.Limit = 100
		}
	}
	return p
}

// Offset returns the zero-based row offset (the skip). Pages too large to
// address saturate at math.MaxInt, which is past the end of any listing.
func (p PaginationParams) Offset() int {
	if p.Page <= 1 || p.Limit <= 0 {
		return 0
	}
	if p.Page-1 > math.MaxInt/p.Limit {
		return math.MaxInt
	}
	return (p.Page - 1) * p.Limit
}

// TotalPages returns how many pages of p.Limit items are needed for total items.
func (p PaginationParams) TotalPages(total int64) int {
	if total <= 0 || p.Limit <= 0 {
		return 0
	}
	return int((total + int64(p.Limit) - 1) / int64(p.Limit))
}

// RangeCorrection tells the caller that the requested page does not exist
// and where to go instead. It is a navigation signal, not an error.
type RangeCorrection struct {
	Requested int
	Target    int
}

// Notice is the human-readable message shown after the redirect.
func (c RangeCorrection) Notice() string {
	return fmt.Sprintf("You asked for page %d but that does not exist. You have been sent to page %d", c.Requested, c.Target)
}

// PlacePage is one window of the place listing.
// Correction is non-nil when the requested page was out of range.
type PlacePage struct {
	Places     []Place
	Page       int
	TotalPages int
	Total      int64
	Correction *RangeCorrection
}
