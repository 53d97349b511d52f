// Package middleware holds the HTTP middleware of the service: request
// logging, gzip transport encoding and the admin access checks (trusted
// subnet and admin token).
package middleware

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

type (
	// responseData captures what was sent back for one request.
	responseData struct {
		status int
		size   int
	}

	loggingResponseWriter struct {
		http.ResponseWriter
		responseData *responseData
	}
)

func (r *loggingResponseWriter) Write(b []byte) (int, error) {
	if r.responseData.status == 0 {
		r.responseData.status = http.StatusOK
	}
	size, err := r.ResponseWriter.Write(b)
	r.responseData.size += size
	return size, err
}

func (r *loggingResponseWriter) WriteHeader(statusCode int) {
	r.ResponseWriter.WriteHeader(statusCode)
	if r.responseData.status == 0 {
		r.responseData.status = statusCode
	}
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (r *loggingResponseWriter) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// WithRequestLogging logs method, url, status, size and duration of every request.
func WithRequestLogging(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rd := &responseData{}
			lw := &loggingResponseWriter{
				ResponseWriter: w,
				responseData:   rd,
			}

			next.ServeHTTP(lw, r)

			log.Info("HTTP Request",
				zap.String("method", r.Method),
				zap.String("url", r.URL.String()),
				zap.Duration("duration", time.Since(start)),
				zap.Int("status", rd.status),
				zap.Int("size", rd.size),
			)
		})
	}
}
