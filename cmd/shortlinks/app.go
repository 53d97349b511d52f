package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/acme/autocert"
	"golang.org/x/sync/errgroup"

	"github.com/atinyakov/go-shortlinks/internal/app/handler"
	"github.com/atinyakov/go-shortlinks/internal/app/server"
	grpcserver "github.com/atinyakov/go-shortlinks/internal/app/server/grpc"
	"github.com/atinyakov/go-shortlinks/internal/app/service"
	"github.com/atinyakov/go-shortlinks/internal/config"
	"github.com/atinyakov/go-shortlinks/internal/middleware"
	"github.com/atinyakov/go-shortlinks/internal/repository"
	"github.com/atinyakov/go-shortlinks/internal/storage"
)

const shutdownTimeout = 10 * time.Second

// app is the wired service: storage, HTTP router and optional gRPC server.
type app struct {
	options *config.Options
	logger  *zap.Logger
	db      *sql.DB
	handler http.Handler
	grpc    *grpcserver.Server
}

// openStorage picks the backend: a SQL database when a DSN is given,
// process memory otherwise.
func openStorage(ctx context.Context, dsn string, logger *zap.Logger) (service.Storage, *sql.DB, error) {
	if dsn == "" {
		logger.Info("Using in memory storage")
		s, err := storage.CreateMemoryStorage()
		return s, nil, err
	}

	db, dialect, err := repository.InitDB(ctx, dsn, logger)
	if err != nil {
		return nil, nil, err
	}

	logger.Info("Using database storage", zap.String("dialect", dialect.Name))
	return repository.CreateLinkRepository(db, dialect, logger), db, nil
}

func newApp(ctx context.Context, options *config.Options, logger *zap.Logger) (*app, error) {
	store, db, err := openStorage(ctx, options.DatabaseDSN, logger)
	if err != nil {
		return nil, err
	}

	a := &app{options: options, logger: logger, db: db}

	links := service.NewLinkStore(store, service.NewCodeGenerator(options.CodeLength), logger.Named("links"))
	resolver := service.NewResolver(links, logger.Named("resolver"))

	subnet, err := middleware.ParseTrustedSubnet(options.TrustedSubnet)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("trusted subnet: %w", err)
	}

	pass, err := handler.NewPassThrough(options.SiteURL, logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("site url: %w", err)
	}

	var auth service.AdminAuthIface
	if options.AdminSecret != "" {
		adminAuth, err := service.NewAdminAuth(options.AdminSecret)
		if err != nil {
			a.Close()
			return nil, err
		}
		auth = adminAuth
	} else {
		logger.Warn("ADMIN_SECRET is empty, admin console disabled")
	}

	a.handler = server.Init(options.ResultHostname, logger, options.EnablePprof, server.Deps{
		Links:    links,
		Resolver: resolver,
		Auth:     auth,
		Subnet:   subnet,
		Pass:     pass,
	})

	if options.GRPCPort > 0 && auth != nil {
		a.grpc = grpcserver.New(options.ResultHostname, subnet, auth, links, logger.Named("grpc"), options.GRPCPort)
	}

	return a, nil
}

// Run serves until ctx is cancelled, then shuts the servers down.
func (a *app) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.options.Port,
		Handler:           a.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	if a.options.EnableHTTPS {
		manager := &autocert.Manager{
			Cache:  autocert.DirCache("cache-dir"),
			Prompt: autocert.AcceptTOS,
		}
		if u, err := url.Parse(a.options.ResultHostname); err == nil && u.Hostname() != "" {
			manager.HostPolicy = autocert.HostWhitelist(u.Hostname())
		}
		srv.Addr = ":443"
		srv.TLSConfig = manager.TLSConfig()
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		if a.options.EnableHTTPS {
			a.logger.Info("Server is running with TLS", zap.String("addr", srv.Addr))
			err = srv.ListenAndServeTLS("", "")
		} else {
			a.logger.Info("Server is running", zap.String("addr", srv.Addr))
			err = srv.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	if a.grpc != nil {
		g.Go(a.grpc.Start)
	}

	g.Go(func() error {
		<-ctx.Done()
		a.logger.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if a.grpc != nil {
			a.grpc.GracefulStop()
		}
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// Close releases the database handle, if any.
func (a *app) Close() {
	if a.db == nil {
		return
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("Cannot close database", zap.Error(err))
	}
}
