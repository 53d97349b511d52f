package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/atinyakov/go-shortlinks/internal/storage"
)

// Action is the outcome of resolving an inbound path.
type Action int

const (
	// Pass means the path is not a short link; normal routing continues.
	Pass Action = iota
	// Redirect means the caller should answer with a permanent redirect.
	Redirect
)

func (a Action) String() string {
	if a == Redirect {
		return "redirect"
	}
	return "pass"
}

// Resolution is the decision for one inbound request.
type Resolution struct {
	Action   Action
	Code     string
	Location string
}

// incrementTimeout bounds the click update once it is detached from the request.
const incrementTimeout = 3 * time.Second

// LinkLookup is the part of the LinkStore a Resolver needs.
type LinkLookup interface {
	FindByCode(ctx context.Context, code string) (*storage.ShortLink, error)
	IncrementClicks(ctx context.Context, code string) error
}

// Resolver maps inbound request paths onto short links and counts clicks.
type Resolver struct {
	links  LinkLookup
	logger *zap.Logger
}

func NewResolver(links LinkLookup, logger *zap.Logger) *Resolver {
	return &Resolver{
		links:  links,
		logger: logger,
	}
}

// NormalizePath strips leading and trailing slashes from an inbound path.
func NormalizePath(rawPath string) string {
	return strings.Trim(rawPath, "/")
}

// Resolve never fails: any miss or storage error yields Pass. A hit is
// counted before the redirect decision is returned, so the click is kept
// even if the response never reaches the visitor.
func (r *Resolver) Resolve(ctx context.Context, rawPath string) Resolution {
	code := NormalizePath(rawPath)
	if code == "" {
		return Resolution{Action: Pass}
	}

	link, err := r.links.FindByCode(ctx, code)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			r.logger.Error("Short link lookup failed", zap.String("code", code), zap.Error(err))
		}
		return Resolution{Action: Pass, Code: code}
	}

	// the visitor may hang up; the click still counts
	incCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), incrementTimeout)
	defer cancel()

	if err := r.links.IncrementClicks(incCtx, code); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			r.logger.Debug("Short link deleted before click was counted", zap.String("code", code))
		} else {
			r.logger.Error("Cannot count click", zap.String("code", code), zap.Error(err))
		}
	}

	return Resolution{
		Action:   Redirect,
		Code:     code,
		Location: link.OriginalURL,
	}
}
