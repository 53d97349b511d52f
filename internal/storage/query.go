package storage

import "strings"

// SortColumn is one of the columns a listing may be ordered by.
type SortColumn string

const (
	SortShortCode   SortColumn = "short_code"
	SortOriginalURL SortColumn = "original_url"
	SortClickCount  SortColumn = "click_count"
	SortCreatedAt   SortColumn = "created_at"
)

// SortDirection is the ordering direction of a listing.
type SortDirection string

const (
	Asc  SortDirection = "asc"
	Desc SortDirection = "desc"
)

// DefaultLimit is the page size used when a non-positive limit is requested.
const DefaultLimit = 10

// ParseSortColumn maps untrusted input onto the column whitelist.
// Anything outside the whitelist falls back to created_at.
func ParseSortColumn(s string) SortColumn {
	switch c := SortColumn(s); c {
	case SortShortCode, SortOriginalURL, SortClickCount, SortCreatedAt:
		return c
	default:
		return SortCreatedAt
	}
}

// ParseSortDirection maps untrusted input onto asc/desc, defaulting to desc.
func ParseSortDirection(s string) SortDirection {
	if strings.EqualFold(s, string(Asc)) {
		return Asc
	}
	return Desc
}

// ListQuery describes one page of a sorted listing.
type ListQuery struct {
	OrderBy   SortColumn
	Direction SortDirection
	Offset    int
	Limit     int
}

// NewListQuery builds a normalized query from raw, possibly untrusted values.
func NewListQuery(orderBy, direction string, offset, limit int) ListQuery {
	return ListQuery{
		OrderBy:   SortColumn(orderBy),
		Direction: SortDirection(direction),
		Offset:    offset,
		Limit:     limit,
	}.Normalize()
}

// Normalize returns a copy of q that is safe to hand to any backend:
// the column and direction are whitelisted and the window is non-negative.
func (q ListQuery) Normalize() ListQuery {
	q.OrderBy = ParseSortColumn(string(q.OrderBy))
	q.Direction = ParseSortDirection(string(q.Direction))
	if q.Offset < 0 {
		q.Offset = 0
	}
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}
	return q
}
