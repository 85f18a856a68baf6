package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frndr/backend/match"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load configuration")
	}
	initLogging(cfg.Logging, os.Stderr)

	if !cfg.isDevelopment() && cfg.Auth.JWTSecret == defaultConfig().Auth.JWTSecret {
		log.Fatal().Msg("auth.jwt_secret must be set outside development")
	}
	jwtSecret = []byte(cfg.Auth.JWTSecret)
	tokenTTL = cfg.Auth.TokenTTL

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openDB(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot reach the database")
	}
	defer db.Close()

	dir := newDirectory(db, cfg.Database.QueryTimeout, cfg.Match.LoaderWait)
	matcher := match.New(dir, dir,
		match.WithOverFetch(cfg.Match.OverFetchFactor),
		match.WithWorkers(cfg.Match.Workers),
		match.WithLogger(log.Logger.With().Str("component", "matcher").Logger()),
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	d := &discovery{
		svc:          match.NewService(dir, matcher),
		metrics:      newMatchMetrics(reg),
		defaultLimit: cfg.Match.DefaultLimit,
		maxLimit:     cfg.Match.MaxLimit,
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      routes(cfg, dir, d, DataLoaderMiddleware(db, cfg.Match.LoaderWait), reg),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("starting frndr discover backend")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	log.Info().Msg("server stopped")
}

// routes builds the router. loaders wraps the handlers that read answer sets
// so each request gets its own batch cache.
func routes(cfg *Config, creds credentialStore, d *discovery, loaders func(http.Handler) http.Handler, gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(withRequestLogging)
	r.Use(withCORS(cfg.Server.CORSOrigins))

	r.Group(func(r chi.Router) {
		if cfg.Auth.LoginRateLimit > 0 {
			r.Use(httprate.LimitByIP(cfg.Auth.LoginRateLimit, cfg.Auth.LoginRateWindow))
		}
		r.Post("/login", loginHandler(creds))
	})

	r.With(loaders).Get("/discover", discoverHandler(d))
	// Live discover; answers are batched per refresh rather than per connection.
	r.Get("/ws/discover", wsDiscoverHandler(d))

	// Health check endpoint for Docker
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return r
}
