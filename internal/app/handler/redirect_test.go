package handler

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/atinyakov/go-shortlinks/internal/app/service"
	"github.com/atinyakov/go-shortlinks/internal/mocks"
	"github.com/atinyakov/go-shortlinks/internal/storage"
)

func TestRedirect_ServeHTTP(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	resolver := mocks.NewMockResolverIface(ctrl)

	tests := []struct {
		name         string
		path         string
		resolution   service.Resolution
		expectedCode int
		location     string
	}{
		{
			name:         "Known code",
			path:         "/abc123/",
			resolution:   service.Resolution{Action: service.Redirect, Code: "abc123", Location: "https://example.com"},
			expectedCode: http.StatusMovedPermanently,
			location:     "https://example.com",
		},
		{
			name:         "Unknown code",
			path:         "/unknown",
			resolution:   service.Resolution{Action: service.Pass, Code: "unknown"},
			expectedCode: http.StatusNotFound,
		},
		{
			name:         "Root",
			path:         "/",
			resolution:   service.Resolution{Action: service.Pass},
			expectedCode: http.StatusNotFound,
		},
	}

	h := NewRedirect(resolver, http.HandlerFunc(NotFound), zap.NewNop())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver.EXPECT().Resolve(gomock.Any(), tt.path).Return(tt.resolution)

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path+"?utm=1", nil))

			assert.Equal(t, tt.expectedCode, rec.Code)
			assert.Equal(t, tt.location, rec.Header().Get("Location"))
		})
	}
}

func TestRedirect_EndToEndCountsClicks(t *testing.T) {
	mem, err := storage.CreateMemoryStorage()
	require.NoError(t, err)

	links := service.NewLinkStore(mem, service.NewCodeGenerator(6), zap.NewNop())
	link, err := links.Create(context.Background(), "https://example.com/x", "")
	require.NoError(t, err)

	h := NewRedirect(service.NewResolver(links, zap.NewNop()), http.HandlerFunc(NotFound), zap.NewNop())

	for _, method := range []string{http.MethodGet, http.MethodHead, http.MethodPost} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(method, "/"+link.ShortCode, nil))
		require.Equal(t, http.StatusMovedPermanently, rec.Code, method)
		assert.Equal(t, "https://example.com/x", rec.Header().Get("Location"))
	}

	stored, err := links.FindByCode(context.Background(), link.ShortCode)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), stored.ClickCount)
}

func TestPassThrough(t *testing.T) {
	t.Run("no site", func(t *testing.T) {
		h, err := NewPassThrough("", zap.NewNop())
		require.NoError(t, err)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/about", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("proxies to site", func(t *testing.T) {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, "page "+r.URL.Path+"?"+r.URL.RawQuery)
		}))
		defer upstream.Close()

		h, err := NewPassThrough(upstream.URL, zap.NewNop())
		require.NoError(t, err)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/about?lang=en", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "page /about?lang=en", rec.Body.String())
	})

	t.Run("upstream down", func(t *testing.T) {
		upstream := httptest.NewServer(http.NotFoundHandler())
		addr := upstream.URL
		upstream.Close()

		h, err := NewPassThrough(addr, zap.NewNop())
		require.NoError(t, err)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})

	t.Run("relative site url", func(t *testing.T) {
		_, err := NewPassThrough("/just/a/path", zap.NewNop())
		assert.ErrorIs(t, err, service.ErrInvalidURL)
	})
}
