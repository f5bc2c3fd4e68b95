package server

import (
	"context"
	"crypto/tls"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

type RouteRegistrar interface {
	RegisterRoutes(router Router)
}

// App struct with middleware support
type App struct {
	router     Router
	registrars []RouteRegistrar
	server     *http.Server
	log        *zerolog.Logger
}

func NewApp(addr string, router Router, log *zerolog.Logger, registrars ...RouteRegistrar) *App {
	return &App{
		router:     router,
		registrars: registrars,
		log:        log,
		server: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// WithTLS serves HTTPS using cfg, which must carry the server certificate.
func (a *App) WithTLS(cfg *tls.Config) *App {
	a.server.TLSConfig = cfg
	return a
}

func (a *App) SetupRoutes() {
	for _, registrar := range a.registrars {
		registrar.RegisterRoutes(a.router)
	}
}

func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

func (a *App) Start() error {
	if a.server.TLSConfig != nil {
		return a.server.ListenAndServeTLS("", "")
	}
	return a.server.ListenAndServe()
}

func (a *App) Shutdown(ctx context.Context) error {
	return a.server.Shutdown(ctx)
}

// SetupServer runs the server in g and shuts it down when ctx ends.
func (a *App) SetupServer(ctx context.Context, g *errgroup.Group) {
	g.Go(func() error {
		a.log.Info().Str("addr", a.server.Addr).Bool("tls", a.server.TLSConfig != nil).Msg("Starting HTTP server")
		if err := a.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error().Err(err).Msg("HTTP server failed")
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		a.log.Info().Msg("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return a.Shutdown(shutdownCtx)
	})
}
