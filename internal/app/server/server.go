// Package server assembles the HTTP router of the service.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/atinyakov/go-shortlinks/internal/app/handler"
	"github.com/atinyakov/go-shortlinks/internal/app/service"
	"github.com/atinyakov/go-shortlinks/internal/middleware"
)

// Deps are the collaborators the router is built from.
type Deps struct {
	Links    service.LinkStoreIface
	Resolver service.ResolverIface
	// Auth enables the admin console API; nil leaves it unmounted.
	Auth   service.AdminAuthIface
	Subnet middleware.TrustedSubnet
	// Pass receives requests that are not short links.
	Pass http.Handler
}

// Init builds the router. Registered routes take precedence; every other
// path is treated as a candidate short code.
func Init(baseURL string, logger *zap.Logger, enablePprof bool, deps Deps) *chi.Mux {
	pass := deps.Pass
	if pass == nil {
		pass = http.HandlerFunc(handler.NotFound)
	}

	admin := handler.NewAdmin(deps.Links, baseURL, logger)
	redirect := handler.NewRedirect(deps.Resolver, pass, logger)

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.WithRequestLogging(logger))

	r.Get("/ping", admin.Ping)

	if enablePprof {
		r.Mount("/debug", chimw.Profiler())
	}

	if deps.Auth != nil {
		r.Route("/admin/api", func(r chi.Router) {
			r.Use(middleware.WithSubnet(deps.Subnet))
			r.Use(middleware.WithAdminJWT(deps.Auth, logger))
			r.Use(middleware.WithGzip)

			r.Post("/links", admin.Create)
			r.Get("/links", admin.List)
			r.Delete("/links", admin.DeleteBatch)
			r.Get("/links/{ref}", admin.Find)
			r.Delete("/links/{ref}", admin.DeleteOne)
		})
	}

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	})

	r.NotFound(redirect.ServeHTTP)

	return r
}
