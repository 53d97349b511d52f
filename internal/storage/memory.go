package storage

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
)

// MemoryStorage keeps short links in process memory. It is used when no
// database DSN is configured and in tests.
type MemoryStorage struct {
	mu     sync.RWMutex
	byCode map[string]*ShortLink
	byID   map[int64]string
	lastID int64
}

func CreateMemoryStorage() (*MemoryStorage, error) {
	return &MemoryStorage{
		byCode: make(map[string]*ShortLink),
		byID:   make(map[int64]string),
	}, nil
}

// Insert stores a new record and assigns it the next id. The code must be unused.
func (m *MemoryStorage) Insert(_ context.Context, link ShortLink) (*ShortLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byCode[link.ShortCode]; exists {
		return nil, ErrCodeTaken
	}

	m.lastID++
	link.ID = m.lastID
	link.ClickCount = 0

	stored := link
	m.byCode[link.ShortCode] = &stored
	m.byID[link.ID] = link.ShortCode

	return &link, nil
}

func (m *MemoryStorage) FindByCode(_ context.Context, code string) (*ShortLink, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	link, exists := m.byCode[code]
	if !exists {
		return nil, ErrNotFound
	}

	found := *link
	return &found, nil
}

func (m *MemoryStorage) IncrementClicks(_ context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	link, exists := m.byCode[code]
	if !exists {
		return ErrNotFound
	}

	link.ClickCount++
	return nil
}

// Delete removes the records with the given ids and reports how many existed.
func (m *MemoryStorage) Delete(_ context.Context, ids []int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var deleted int64
	for _, id := range ids {
		code, exists := m.byID[id]
		if !exists {
			continue
		}
		delete(m.byID, id)
		delete(m.byCode, code)
		deleted++
	}

	return deleted, nil
}

func (m *MemoryStorage) List(_ context.Context, q ListQuery) ([]ShortLink, int, error) {
	q = q.Normalize()

	m.mu.RLock()
	links := make([]ShortLink, 0, len(m.byCode))
	for _, l := range m.byCode {
		links = append(links, *l)
	}
	m.mu.RUnlock()

	sort.Slice(links, func(i, j int) bool {
		c := compare(links[i], links[j], q.OrderBy)
		if c == 0 {
			c = compareInt64(links[i].ID, links[j].ID)
		}
		if q.Direction == Asc {
			return c < 0
		}
		return c > 0
	})

	total := len(links)
	if q.Offset >= total {
		return []ShortLink{}, total, nil
	}

	end := q.Offset + q.Limit
	if end > total {
		end = total
	}

	return links[q.Offset:end], total, nil
}

func (m *MemoryStorage) PingContext(_ context.Context) error {
	return errors.ErrUnsupported
}

func compare(a, b ShortLink, column SortColumn) int {
	switch column {
	case SortShortCode:
		return strings.Compare(a.ShortCode, b.ShortCode)
	case SortOriginalURL:
		return strings.Compare(a.OriginalURL, b.OriginalURL)
	case SortClickCount:
		switch {
		case a.ClickCount < b.ClickCount:
			return -1
		case a.ClickCount > b.ClickCount:
			return 1
		}
		return 0
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
