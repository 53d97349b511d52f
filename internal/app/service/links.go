// Package service holds the short link domain logic: creating links with
// unique codes, resolving inbound paths and authenticating admin operators.
package service

import (
	"context"
	"errors"
	"net/url"
	"slices"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"

	"github.com/atinyakov/go-shortlinks/internal/storage"
)

var (
	// ErrInvalidURL is returned when the destination is not a well-formed absolute URL.
	ErrInvalidURL = errors.New("invalid url")

	// ErrInvalidCode is returned when a desired short code cannot be stored or resolved.
	ErrInvalidCode = errors.New("invalid short code")

	// ErrCodeGeneration is returned when no free code was found within the retry budget.
	ErrCodeGeneration = errors.New("unable to generate a unique short code")
)

// ReservedSegments are first path segments served by registered routes.
// Codes starting with them would never reach the resolver.
var ReservedSegments = []string{"ping", "admin", "debug"}

// maxGenerateAttempts bounds the regeneration loop on collisions.
const maxGenerateAttempts = 12

// allowedSchemes are the protocols a destination may use.
var allowedSchemes = map[string]bool{
	"http": true, "https": true, "ftp": true, "ftps": true, "mailto": true,
	"news": true, "irc": true, "gopher": true, "nntp": true, "feed": true,
	"telnet": true, "mms": true, "rtsp": true, "sms": true, "svn": true,
	"tel": true, "fax": true, "xmpp": true, "webcal": true, "urn": true,
}

// hostSchemes must carry a host to be usable.
var hostSchemes = map[string]bool{
	"http": true, "https": true, "ftp": true, "ftps": true,
}

// LinkStore owns short link records on top of a Storage backend.
type LinkStore struct {
	storage Storage
	codes   *CodeGenerator
	logger  *zap.Logger
	now     func() time.Time
}

func NewLinkStore(s Storage, codes *CodeGenerator, logger *zap.Logger) *LinkStore {
	return &LinkStore{
		storage: s,
		codes:   codes,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Create stores a new short link. An empty desiredCode asks for a generated
// one; generated codes are redrawn until the backend accepts one.
func (s *LinkStore) Create(ctx context.Context, originalURL, desiredCode string) (*storage.ShortLink, error) {
	target, err := ValidateURL(originalURL)
	if err != nil {
		return nil, err
	}

	code := strings.TrimSpace(desiredCode)
	if code != "" {
		if err := ValidateCode(code); err != nil {
			return nil, err
		}
		return s.insert(ctx, code, target)
	}

	for attempt := 0; attempt < maxGenerateAttempts; attempt++ {
		candidate := s.codes.Generate(attempt)
		if ValidateCode(candidate) != nil {
			continue
		}

		link, err := s.insert(ctx, candidate, target)
		if errors.Is(err, storage.ErrCodeTaken) {
			s.logger.Info("Generated code collided, regenerating",
				zap.String("code", candidate), zap.Int("attempt", attempt+1))
			continue
		}

		return link, err
	}

	return nil, ErrCodeGeneration
}

func (s *LinkStore) insert(ctx context.Context, code, target string) (*storage.ShortLink, error) {
	return s.storage.Insert(ctx, storage.ShortLink{
		ShortCode:   code,
		OriginalURL: target,
		CreatedAt:   s.now(),
	})
}

// FindByCode looks a record up by its exact, case-sensitive code.
func (s *LinkStore) FindByCode(ctx context.Context, code string) (*storage.ShortLink, error) {
	if code == "" {
		return nil, storage.ErrNotFound
	}
	return s.storage.FindByCode(ctx, code)
}

// IncrementClicks atomically adds one click to the record with the given code.
func (s *LinkStore) IncrementClicks(ctx context.Context, code string) error {
	return s.storage.IncrementClicks(ctx, code)
}

// Delete removes records by id. Unknown ids are ignored.
func (s *LinkStore) Delete(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	unique := make([]int64, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	return s.storage.Delete(ctx, unique)
}

// List returns one page of records and the total record count.
func (s *LinkStore) List(ctx context.Context, q storage.ListQuery) ([]storage.ShortLink, int, error) {
	return s.storage.List(ctx, q.Normalize())
}

func (s *LinkStore) PingContext(ctx context.Context) error {
	return s.storage.PingContext(ctx)
}

// ValidateURL checks that raw is a usable absolute URL and returns it trimmed.
func ValidateURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrInvalidURL
	}

	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() {
		return "", ErrInvalidURL
	}

	scheme := strings.ToLower(u.Scheme)
	if !allowedSchemes[scheme] {
		return "", ErrInvalidURL
	}
	if hostSchemes[scheme] && u.Hostname() == "" {
		return "", ErrInvalidURL
	}
	if !hostSchemes[scheme] && u.Opaque == "" && u.Host == "" {
		return "", ErrInvalidURL
	}

	return raw, nil
}

// ValidateCode checks a caller supplied short code.
func ValidateCode(code string) error {
	if code == "" || len([]rune(code)) > MaxShortCodeLength {
		return ErrInvalidCode
	}
	if strings.HasPrefix(code, "/") || strings.HasSuffix(code, "/") {
		return ErrInvalidCode
	}
	for _, r := range code {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return ErrInvalidCode
		}
	}

	first, _, _ := strings.Cut(code, "/")
	if slices.Contains(ReservedSegments, first) {
		return ErrInvalidCode
	}
	return nil
}
