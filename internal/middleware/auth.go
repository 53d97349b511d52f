package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/atinyakov/go-shortlinks/internal/app/service"
)

// ContextKey is the type of the context keys set by this package.
type ContextKey string

// ClaimsKey holds the *service.Claims of an authenticated admin.
const ClaimsKey ContextKey = "adminClaims"

// TokenCookie is the cookie an admin token may be sent in.
const TokenCookie = "token"

// CSRFHeader must echo the token id (jti) on state-changing requests
// authenticated by TokenCookie.
const CSRFHeader = "X-CSRF-Token"

// WithClaims stores admin claims in ctx.
func WithClaims(ctx context.Context, claims *service.Claims) context.Context {
	return context.WithValue(ctx, ClaimsKey, claims)
}

// ClaimsFromContext returns the admin claims stored by WithClaims.
func ClaimsFromContext(ctx context.Context) (*service.Claims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*service.Claims)
	return claims, ok && claims != nil
}

// BearerToken extracts the token from an "Authorization: Bearer" value.
func BearerToken(header string) string {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func requestToken(r *http.Request) (token string, fromCookie bool) {
	if bearer := BearerToken(r.Header.Get("Authorization")); bearer != "" {
		return bearer, false
	}
	if c, err := r.Cookie(TokenCookie); err == nil {
		return c.Value, true
	}
	return "", false
}

func safeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	default:
		return false
	}
}

func validCSRF(r *http.Request, claims *service.Claims) bool {
	got := r.Header.Get(CSRFHeader)
	if got == "" || claims.ID == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(claims.ID)) == 1
}

// WithAdminJWT admits requests carrying a valid admin token that grants
// the manage_options capability. Missing or invalid tokens get 401, valid
// tokens without the capability get 403. A token read from the cookie only
// authorizes state-changing methods together with a matching CSRFHeader.
func WithAdminJWT(auth service.AdminAuthIface, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, fromCookie := requestToken(r)
			if token == "" {
				w.Header().Set("WWW-Authenticate", `Bearer realm="admin"`)
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}

			claims, err := auth.ParseRawJWT(token)
			if err != nil {
				logger.Info("Rejected admin token", zap.Error(err))
				w.Header().Set("WWW-Authenticate", `Bearer realm="admin", error="invalid_token"`)
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}

			if !claims.Can(service.CapManageOptions) {
				logger.Info("Admin token lacks capability",
					zap.String("subject", claims.Subject),
					zap.String("capability", service.CapManageOptions),
				)
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}

			if fromCookie && !safeMethod(r.Method) && !validCSRF(r, claims) {
				logger.Warn("Rejected cookie request without CSRF token",
					zap.String("subject", claims.Subject),
					zap.String("method", r.Method),
					zap.String("origin", r.Header.Get("Origin")),
				)
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}
