package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/atinyakov/go-shortlinks/internal/app/service"
	"github.com/atinyakov/go-shortlinks/internal/storage"
)

func newBenchLinks(b *testing.B) *service.LinkStore {
	b.Helper()

	mem, err := storage.CreateMemoryStorage()
	if err != nil {
		b.Fatal(err)
	}
	return service.NewLinkStore(mem, service.NewCodeGenerator(service.DefaultCodeLength), zap.NewNop())
}

func BenchmarkCreate(b *testing.B) {
	h := NewAdmin(newBenchLinks(b), "http://localhost", zap.NewNop())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		req := httptest.NewRequest(http.MethodPost, "/admin/api/links",
			strings.NewReader(`{"original_url":"https://example.com/`+strconv.Itoa(i)+`"}`))
		h.Create(httptest.NewRecorder(), req)
	}
}

func BenchmarkRedirect(b *testing.B) {
	links := newBenchLinks(b)
	link, err := links.Create(context.Background(), "https://example.com", "bench")
	if err != nil {
		b.Fatal(err)
	}

	h := NewRedirect(service.NewResolver(links, zap.NewNop()), http.HandlerFunc(NotFound), zap.NewNop())
	req := httptest.NewRequest(http.MethodGet, "/"+link.ShortCode, nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		h.ServeHTTP(httptest.NewRecorder(), req)
	}
}
