package service

import (
	"context"

	"github.com/atinyakov/go-shortlinks/internal/storage"
)

//go:generate mockgen -destination=../../mocks/service.go -package=mocks github.com/atinyakov/go-shortlinks/internal/app/service Storage,LinkStoreIface,ResolverIface,AdminAuthIface

// Storage is the persistence backend behind a LinkStore.
type Storage interface {
	Insert(context.Context, storage.ShortLink) (*storage.ShortLink, error)
	FindByCode(context.Context, string) (*storage.ShortLink, error)
	IncrementClicks(context.Context, string) error
	Delete(context.Context, []int64) (int64, error)
	List(context.Context, storage.ListQuery) ([]storage.ShortLink, int, error)
	PingContext(context.Context) error
}

// LinkStoreIface is the surface the admin console uses.
type LinkStoreIface interface {
	Create(ctx context.Context, originalURL, desiredCode string) (*storage.ShortLink, error)
	FindByCode(ctx context.Context, code string) (*storage.ShortLink, error)
	Delete(ctx context.Context, ids []int64) (int64, error)
	List(ctx context.Context, q storage.ListQuery) ([]storage.ShortLink, int, error)
	PingContext(ctx context.Context) error
}

// ResolverIface turns inbound paths into redirect decisions.
type ResolverIface interface {
	Resolve(ctx context.Context, rawPath string) Resolution
}

// AdminAuthIface issues and verifies admin console tokens.
type AdminAuthIface interface {
	BuildJWTString(subject string) (string, error)
	ParseRawJWT(tokenString string) (*Claims, error)
}
