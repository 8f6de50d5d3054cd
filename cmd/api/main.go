package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"hotel_listings/internal/adapters/fetch"
	server "hotel_listings/internal/adapters/http_server"
	"hotel_listings/internal/adapters/observability"
	redisad "hotel_listings/internal/adapters/redis"
	"hotel_listings/internal/app"
	"hotel_listings/internal/domain"
	"hotel_listings/internal/shared"
	"hotel_listings/internal/storage/filestore"
	"hotel_listings/internal/storage/images"
	mysqlrepo "hotel_listings/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	observability.Serve(cfg.MetricsAddr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo := openRepo(cfg)
	cache := openCache(ctx, cfg)
	maxUpload := int64(cfg.MaxUploadMB) << 20

	store, err := images.New(cfg.ImageDir, fetch.New(cfg.FetchRPS, maxUpload))
	if err != nil {
		log.Fatal().Err(err).Str("dir", cfg.ImageDir).Msg("image store init failed")
	}

	q := app.NewQueryService(repo, store, cache, cfg.CacheTTL)
	ed := app.NewHotelEditor(repo, store, cache)

	// http
	srv := server.New()
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountStatic(images.RefPrefix, store.Dir())
	srv.MountHandlers(&server.Handlers{Q: q, E: ed, BaseURL: cfg.PublicBaseURL, MaxUploadBytes: maxUpload})

	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Str("store", cfg.StoreDriver).Msg("API listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	log.Info().Msg("API stopped")
}

func openRepo(cfg shared.Config) domain.HotelRepository {
	if cfg.StoreDriver == "mysql" {
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("sql.Open failed")
		}
		if err := db.Ping(); err != nil {
			log.Fatal().Err(err).Msg("db.Ping failed")
		}
		log.Info().Msg("database connection ok")
		return mysqlrepo.New(db)
	}
	repo, err := filestore.New(cfg.DataDir)
	if err != nil {
		log.Fatal().Err(err).Str("dir", cfg.DataDir).Msg("file store init failed")
	}
	return repo
}

// openCache returns nil when Redis is not configured or unreachable; the
// services treat a nil cache as disabled.
func openCache(ctx context.Context, cfg shared.Config) domain.Cache {
	if cfg.RedisAddr == "" {
		return nil
	}
	c := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := c.Ping(pingCtx); err != nil {
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable, running without cache")
		_ = c.Close()
		return nil
	}
	return c
}
