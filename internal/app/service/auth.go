package service

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// CapManageOptions is the capability required for every admin operation.
const CapManageOptions = "manage_options"

// TokenExp is the lifetime of an admin token.
const TokenExp = time.Hour * 24 * 30

// ErrEmptySecret is returned when no signing secret was configured.
var ErrEmptySecret = errors.New("admin secret is empty")

// Claims are the claims carried by an admin token.
type Claims struct {
	jwt.RegisteredClaims
	// Capabilities granted to the operator holding the token.
	Capabilities []string `json:"caps,omitempty"`
}

// Can reports whether the token grants capability c.
func (c *Claims) Can(capability string) bool {
	return slices.Contains(c.Capabilities, capability)
}

// AdminAuth signs and verifies HS256 admin tokens.
type AdminAuth struct {
	secret []byte
	now    func() time.Time
}

func NewAdminAuth(secret string) (*AdminAuth, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}

	return &AdminAuth{
		secret: []byte(secret),
		now:    time.Now,
	}, nil
}

// BuildJWTString issues a token for subject that may manage links.
func (a *AdminAuth) BuildJWTString(subject string) (string, error) {
	return a.IssueToken(subject, []string{CapManageOptions}, TokenExp)
}

// IssueToken issues a token for subject with an explicit capability set.
func (a *AdminAuth) IssueToken(subject string, capabilities []string, ttl time.Duration) (string, error) {
	now := a.now()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Capabilities: capabilities,
	})

	return token.SignedString(a.secret)
}

// ParseRawJWT verifies tokenString and returns its claims.
func (a *AdminAuth) ParseRawJWT(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, fmt.Errorf("invalid token or claims")
	}

	return claims, nil
}
