// Package models defines the request and response bodies of the admin
// console API.
package models

import (
	"time"

	"github.com/atinyakov/go-shortlinks/internal/storage"
)

// CreateRequest asks for a new short link.
type CreateRequest struct {
	// OriginalURL is the destination.
	OriginalURL string `json:"original_url"`
	// ShortCode is optional; an empty value asks the server to generate one.
	ShortCode string `json:"short_code,omitempty"`
}

// LinkResponse is a stored short link as shown to operators.
type LinkResponse struct {
	ID          int64     `json:"id"`
	ShortCode   string    `json:"short_code"`
	ShortURL    string    `json:"short_url"`
	OriginalURL string    `json:"original_url"`
	ClickCount  uint64    `json:"click_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewLinkResponse builds the response for link, resolving its public URL
// against baseURL.
func NewLinkResponse(link storage.ShortLink, baseURL string) LinkResponse {
	return LinkResponse{
		ID:          link.ID,
		ShortCode:   link.ShortCode,
		ShortURL:    baseURL + "/" + link.ShortCode,
		OriginalURL: link.OriginalURL,
		ClickCount:  link.ClickCount,
		CreatedAt:   link.CreatedAt,
	}
}

// DeleteRequest is a bulk deletion.
type DeleteRequest struct {
	IDs []int64 `json:"ids"`
}

// DeleteResponse reports how many records were removed.
type DeleteResponse struct {
	Deleted int64 `json:"deleted"`
}

// TokenResponse carries a freshly issued admin token.
type TokenResponse struct {
	Token string `json:"token"`
}

// ErrorResponse is the body of every non-2xx admin API reply.
type ErrorResponse struct {
	Error string `json:"error"`
}
