package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/go-shortlinks/internal/middleware"
)

func TestParseTrustedSubnet(t *testing.T) {
	s, err := middleware.ParseTrustedSubnet("")
	require.NoError(t, err)
	assert.True(t, s.Open())

	s, err = middleware.ParseTrustedSubnet("10.1.2.3/8")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.0/8", s.String())

	_, err = middleware.ParseTrustedSubnet("192.168.0")
	assert.Error(t, err)
}

func TestWithSubnet(t *testing.T) {
	tests := []struct {
		name           string
		subnet         string
		realIP         string
		expectedStatus int
	}{
		{
			name:           "Allowed subnet",
			subnet:         "192.168.0.0/24",
			realIP:         "192.168.0.45",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Forbidden subnet",
			subnet:         "10.0.0.0/8",
			realIP:         "192.168.0.1",
			expectedStatus: http.StatusForbidden,
		},
		{
			name:           "Single host",
			subnet:         "203.0.113.5/32",
			realIP:         "203.0.113.5",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Address with port",
			subnet:         "192.168.0.0/24",
			realIP:         "192.168.0.9:5555",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "IPv6",
			subnet:         "2001:db8::/32",
			realIP:         "2001:db8::1",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Missing header",
			subnet:         "192.168.1.0/24",
			realIP:         "",
			expectedStatus: http.StatusForbidden,
		},
		{
			name:           "Garbage header",
			subnet:         "192.168.1.0/24",
			realIP:         "not-an-ip",
			expectedStatus: http.StatusForbidden,
		},
		{
			name:           "No subnet configured",
			subnet:         "",
			realIP:         "",
			expectedStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subnet, err := middleware.ParseTrustedSubnet(tt.subnet)
			require.NoError(t, err)

			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/admin/api/links", nil)
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}

			rr := httptest.NewRecorder()
			middleware.WithSubnet(subnet)(handler).ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
		})
	}
}
