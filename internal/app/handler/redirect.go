package handler

import (
	"net/http"
	"net/http/httputil"
	"net/url"

	"go.uber.org/zap"

	"github.com/atinyakov/go-shortlinks/internal/app/service"
)

// RedirectHandler answers requests whose path is a known short code with
// a permanent redirect and hands every other request to next.
type RedirectHandler struct {
	resolver service.ResolverIface
	next     http.Handler
	logger   *zap.Logger
}

func NewRedirect(r service.ResolverIface, next http.Handler, l *zap.Logger) *RedirectHandler {
	return &RedirectHandler{
		resolver: r,
		next:     next,
		logger:   l,
	}
}

func (h *RedirectHandler) ServeHTTP(res http.ResponseWriter, req *http.Request) {
	decision := h.resolver.Resolve(req.Context(), req.URL.Path)

	if decision.Action != service.Redirect {
		h.next.ServeHTTP(res, req)
		return
	}

	h.logger.Debug("Redirecting short link",
		zap.String("code", decision.Code),
		zap.String("location", decision.Location),
	)

	res.Header().Set("Location", decision.Location)
	res.WriteHeader(http.StatusMovedPermanently)
}

// NotFound is the pass target when no upstream site is configured.
func NotFound(res http.ResponseWriter, req *http.Request) {
	http.Error(res, "Route not found", http.StatusNotFound)
}

// NewPassThrough returns the handler for requests that are not short links.
// With an empty siteURL it serves a plain 404; otherwise requests are
// proxied to the site unchanged.
func NewPassThrough(siteURL string, l *zap.Logger) (http.Handler, error) {
	if siteURL == "" {
		return http.HandlerFunc(NotFound), nil
	}

	target, err := url.Parse(siteURL)
	if err != nil {
		return nil, err
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, &url.Error{Op: "parse", URL: siteURL, Err: service.ErrInvalidURL}
	}

	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.SetXForwarded()
		},
		ErrorHandler: func(res http.ResponseWriter, req *http.Request, err error) {
			l.Error("Upstream site unreachable", zap.String("path", req.URL.Path), zap.Error(err))
			res.WriteHeader(http.StatusBadGateway)
		},
	}, nil
}
