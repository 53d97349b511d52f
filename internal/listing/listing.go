// Package listing renders sortable, paginated tables of records. It knows
// nothing about the record type: callers supply the columns and a fetch
// function, and get back a value ready to be encoded.
package listing

import (
	"context"
	"math"
	"net/url"
	"strconv"

	"github.com/atinyakov/go-shortlinks/internal/storage"
)

const (
	// DefaultPerPage is used when per_page is missing or not positive.
	DefaultPerPage = storage.DefaultLimit
	// MaxPerPage caps the page size.
	MaxPerPage = 100
	// MaxPage keeps the page offset within int.
	MaxPage = math.MaxInt / MaxPerPage
)

// Column describes one table column.
type Column struct {
	Key      string `json:"key"`
	Title    string `json:"title"`
	Sortable bool   `json:"sortable"`
}

// Request is a page request as sent by a client.
type Request struct {
	Page    int
	PerPage int
	OrderBy string
	Order   string
}

// ParseRequest reads paged, per_page, orderby and order from query values.
// Malformed numbers are treated as missing.
func ParseRequest(v url.Values) Request {
	page, _ := strconv.Atoi(v.Get("paged"))
	perPage, _ := strconv.Atoi(v.Get("per_page"))

	return Request{
		Page:    page,
		PerPage: perPage,
		OrderBy: v.Get("orderby"),
		Order:   v.Get("order"),
	}.normalize()
}

func (r Request) normalize() Request {
	if r.Page < 1 {
		r.Page = 1
	}
	if r.Page > MaxPage {
		r.Page = MaxPage
	}
	if r.PerPage <= 0 {
		r.PerPage = DefaultPerPage
	}
	if r.PerPage > MaxPerPage {
		r.PerPage = MaxPerPage
	}
	return r
}

// Offset is the number of records before the requested page.
func (r Request) Offset() int {
	r = r.normalize()
	return (r.Page - 1) * r.PerPage
}

// Query turns the request into a whitelisted storage query.
func (r Request) Query() storage.ListQuery {
	r = r.normalize()
	return storage.NewListQuery(r.OrderBy, r.Order, r.Offset(), r.PerPage)
}

// Pagination summarises where a page sits in the full result set.
type Pagination struct {
	TotalItems  int `json:"total_items"`
	PerPage     int `json:"per_page"`
	TotalPages  int `json:"total_pages"`
	CurrentPage int `json:"current_page"`
}

// NewPagination computes the page count for total items.
func NewPagination(total, perPage, page int) Pagination {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}

	return Pagination{
		TotalItems:  total,
		PerPage:     perPage,
		TotalPages:  (total + perPage - 1) / perPage,
		CurrentPage: page,
	}
}

// Table is one rendered page.
type Table[T any] struct {
	Columns    []Column   `json:"columns"`
	Rows       []T        `json:"rows"`
	OrderBy    string     `json:"orderby"`
	Order      string     `json:"order"`
	Pagination Pagination `json:"pagination"`
}

// FetchFunc loads one page of rows and the total row count.
type FetchFunc[T any] func(ctx context.Context, q storage.ListQuery) ([]T, int, error)

// Build fetches the page described by req and assembles the table.
func Build[T any](ctx context.Context, columns []Column, req Request, fetch FetchFunc[T]) (*Table[T], error) {
	req = req.normalize()
	q := req.Query()

	rows, total, err := fetch(ctx, q)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []T{}
	}

	return &Table[T]{
		Columns:    columns,
		Rows:       rows,
		OrderBy:    string(q.OrderBy),
		Order:      string(q.Direction),
		Pagination: NewPagination(total, req.PerPage, req.Page),
	}, nil
}
