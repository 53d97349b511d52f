package storage_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/go-shortlinks/internal/storage"
)

func seed(t *testing.T, mem *storage.MemoryStorage, links ...storage.ShortLink) []storage.ShortLink {
	t.Helper()

	stored := make([]storage.ShortLink, 0, len(links))
	for _, l := range links {
		r, err := mem.Insert(context.Background(), l)
		require.NoError(t, err)
		stored = append(stored, *r)
	}
	return stored
}

func TestMemoryStorage_InsertAndFind(t *testing.T) {
	mem, _ := storage.CreateMemoryStorage()

	record := storage.ShortLink{
		ShortCode:   "abc123",
		OriginalURL: "https://example.com",
		CreatedAt:   time.Now(),
	}

	result, err := mem.Insert(context.Background(), record)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), result.ID)
	assert.Equal(t, uint64(0), result.ClickCount)

	// Same code again must not overwrite
	_, err = mem.Insert(context.Background(), storage.ShortLink{ShortCode: "abc123", OriginalURL: "https://other.com"})
	assert.ErrorIs(t, err, storage.ErrCodeTaken)

	found, err := mem.FindByCode(context.Background(), "abc123")
	assert.NoError(t, err)
	assert.Equal(t, "https://example.com", found.OriginalURL)

	// Lookup is case-sensitive
	_, err = mem.FindByCode(context.Background(), "ABC123")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestMemoryStorage_IDsAreNeverReused(t *testing.T) {
	mem, _ := storage.CreateMemoryStorage()
	links := seed(t, mem,
		storage.ShortLink{ShortCode: "a", OriginalURL: "https://a.com"},
		storage.ShortLink{ShortCode: "b", OriginalURL: "https://b.com"},
	)

	n, err := mem.Delete(context.Background(), []int64{links[1].ID})
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	next := seed(t, mem, storage.ShortLink{ShortCode: "c", OriginalURL: "https://c.com"})
	assert.Greater(t, next[0].ID, links[1].ID)
}

func TestMemoryStorage_IncrementClicks(t *testing.T) {
	mem, _ := storage.CreateMemoryStorage()
	seed(t, mem, storage.ShortLink{ShortCode: "hot", OriginalURL: "https://hot.com"})

	const n = 200
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, mem.IncrementClicks(context.Background(), "hot"))
		}()
	}
	wg.Wait()

	found, err := mem.FindByCode(context.Background(), "hot")
	require.NoError(t, err)
	assert.Equal(t, uint64(n), found.ClickCount)

	assert.ErrorIs(t, mem.IncrementClicks(context.Background(), "cold"), storage.ErrNotFound)
}

func TestMemoryStorage_Delete(t *testing.T) {
	mem, _ := storage.CreateMemoryStorage()
	links := seed(t, mem,
		storage.ShortLink{ShortCode: "s1", OriginalURL: "https://1.com"},
		storage.ShortLink{ShortCode: "s2", OriginalURL: "https://2.com"},
	)

	n, err := mem.Delete(context.Background(), []int64{links[0].ID, 999})
	assert.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = mem.FindByCode(context.Background(), "s1")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// Second delete of the same id is a no-op
	n, err = mem.Delete(context.Background(), []int64{links[0].ID})
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)

	_, err = mem.FindByCode(context.Background(), "s2")
	assert.NoError(t, err)
}

func TestMemoryStorage_List(t *testing.T) {
	mem, _ := storage.CreateMemoryStorage()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	seed(t, mem,
		storage.ShortLink{ShortCode: "bbb", OriginalURL: "https://z.com", CreatedAt: base},
		storage.ShortLink{ShortCode: "aaa", OriginalURL: "https://y.com", CreatedAt: base.Add(time.Hour)},
		storage.ShortLink{ShortCode: "ccc", OriginalURL: "https://x.com", CreatedAt: base.Add(2 * time.Hour)},
	)
	require.NoError(t, mem.IncrementClicks(context.Background(), "bbb"))

	codes := func(links []storage.ShortLink) []string {
		out := make([]string, 0, len(links))
		for _, l := range links {
			out = append(out, l.ShortCode)
		}
		return out
	}

	tests := []struct {
		name  string
		query storage.ListQuery
		want  []string
	}{
		{
			name:  "default is newest first",
			query: storage.NewListQuery("", "", 0, 0),
			want:  []string{"ccc", "aaa", "bbb"},
		},
		{
			name:  "short code ascending",
			query: storage.NewListQuery("short_code", "ASC", 0, 10),
			want:  []string{"aaa", "bbb", "ccc"},
		},
		{
			name:  "original url ascending",
			query: storage.NewListQuery("original_url", "asc", 0, 10),
			want:  []string{"ccc", "aaa", "bbb"},
		},
		{
			name:  "click count descending",
			query: storage.NewListQuery("click_count", "desc", 0, 1),
			want:  []string{"bbb"},
		},
		{
			name:  "unknown column coerced to created_at",
			query: storage.NewListQuery("created_at; DROP TABLE x", "asc", 1, 10),
			want:  []string{"aaa", "ccc"},
		},
		{
			name:  "offset past the end",
			query: storage.NewListQuery("short_code", "asc", 5, 10),
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			links, total, err := mem.List(context.Background(), tt.query)
			require.NoError(t, err)
			assert.Equal(t, 3, total)
			assert.Equal(t, tt.want, codes(links))
		})
	}
}

func TestMemoryStorage_PingContext(t *testing.T) {
	mem, _ := storage.CreateMemoryStorage()

	err := mem.PingContext(context.Background())
	assert.True(t, errors.Is(err, errors.ErrUnsupported))
}
