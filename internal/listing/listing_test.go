package listing

import (
	"context"
	"errors"
	"math"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/go-shortlinks/internal/storage"
)

func TestParseRequest(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  Request
	}{
		{"empty", "", Request{Page: 1, PerPage: DefaultPerPage}},
		{"explicit", "paged=3&per_page=20&orderby=click_count&order=asc",
			Request{Page: 3, PerPage: 20, OrderBy: "click_count", Order: "asc"}},
		{"negative per page", "per_page=-5", Request{Page: 1, PerPage: DefaultPerPage}},
		{"huge per page", "per_page=5000", Request{Page: 1, PerPage: MaxPerPage}},
		{"garbage numbers", "paged=abc&per_page=x", Request{Page: 1, PerPage: DefaultPerPage}},
		{"huge page", "paged=9223372036854775807&per_page=100", Request{Page: MaxPage, PerPage: MaxPerPage}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := url.ParseQuery(tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ParseRequest(v))
		})
	}
}

func TestRequest_Query(t *testing.T) {
	q := Request{Page: 3, PerPage: 20, OrderBy: "1; DROP TABLE", Order: "sideways"}.Query()

	assert.Equal(t, storage.ListQuery{
		OrderBy:   storage.SortCreatedAt,
		Direction: storage.Desc,
		Offset:    40,
		Limit:     20,
	}, q)
}

func TestRequest_OffsetDoesNotOverflow(t *testing.T) {
	r := Request{Page: math.MaxInt, PerPage: MaxPerPage}

	assert.Positive(t, r.Offset())
	assert.Equal(t, (MaxPage-1)*MaxPerPage, r.Query().Offset)
}

func TestNewPagination(t *testing.T) {
	assert.Equal(t, Pagination{TotalItems: 0, PerPage: 10, TotalPages: 0, CurrentPage: 1}, NewPagination(0, 10, 1))
	assert.Equal(t, 3, NewPagination(21, 10, 1).TotalPages)
	assert.Equal(t, 2, NewPagination(20, 10, 1).TotalPages)
	assert.Equal(t, DefaultPerPage, NewPagination(5, 0, 1).PerPage)
}

func TestBuild(t *testing.T) {
	columns := []Column{{Key: "name", Title: "Name", Sortable: true}}

	var got storage.ListQuery
	fetch := func(_ context.Context, q storage.ListQuery) ([]string, int, error) {
		got = q
		return []string{"c", "d"}, 12, nil
	}

	table, err := Build(context.Background(), columns, Request{Page: 2, PerPage: 2, OrderBy: "short_code", Order: "ASC"}, fetch)
	require.NoError(t, err)

	assert.Equal(t, 2, got.Offset)
	assert.Equal(t, storage.Asc, got.Direction)
	assert.Equal(t, []string{"c", "d"}, table.Rows)
	assert.Equal(t, "short_code", table.OrderBy)
	assert.Equal(t, "asc", table.Order)
	assert.Equal(t, Pagination{TotalItems: 12, PerPage: 2, TotalPages: 6, CurrentPage: 2}, table.Pagination)
}

func TestBuild_EmptyAndError(t *testing.T) {
	table, err := Build(context.Background(), nil, Request{}, func(context.Context, storage.ListQuery) ([]int, int, error) {
		return nil, 0, nil
	})
	require.NoError(t, err)
	assert.NotNil(t, table.Rows)
	assert.Empty(t, table.Rows)

	boom := errors.New("boom")
	_, err = Build(context.Background(), nil, Request{}, func(context.Context, storage.ListQuery) ([]int, int, error) {
		return nil, 0, boom
	})
	assert.ErrorIs(t, err, boom)
}
