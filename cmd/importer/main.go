package main

import (
	"context"
	"database/sql"
	"flag"
	"path/filepath"
	"sync"
	"sync/atomic"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"hotel_listings/internal/adapters/fetch"
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
	ctx := context.Background()
	cfg := shared.Load()

	dir := flag.String("dir", cfg.ImportDir, "directory of hotel seed files (*.json)")
	workers := flag.Int("workers", cfg.ImportWorkers, "concurrent imports")
	flag.Parse()

	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	log.Info().
		Str("dir", *dir).
		Int("workers", *workers).
		Str("store", cfg.StoreDriver).
		Msg("importer starting")

	files, err := app.SeedFiles(*dir)
	if err != nil {
		log.Fatal().Err(err).Str("dir", *dir).Msg("list seed files failed")
	}

	var repo domain.HotelRepository
	if cfg.StoreDriver == "mysql" {
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("sql.Open failed")
		}
		if err := db.Ping(); err != nil {
			log.Fatal().Err(err).Msg("db.Ping failed")
		}
		log.Info().Msg("db ping ok")
		repo = mysqlrepo.New(db)
	} else {
		fr, err := filestore.New(cfg.DataDir)
		if err != nil {
			log.Fatal().Err(err).Msg("file store init failed")
		}
		repo = fr
	}

	store, err := images.New(cfg.ImageDir, fetch.New(cfg.FetchRPS, int64(cfg.MaxUploadMB)<<20))
	if err != nil {
		log.Fatal().Err(err).Msg("image store init failed")
	}

	var cache domain.Cache
	if cfg.RedisAddr != "" {
		rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		defer rc.Close()
		cache = rc
	}

	imp := app.NewImportService(app.NewHotelEditor(repo, store, cache))
	if *workers < 1 {
		*workers = 1
	}
	sem := semaphore.NewWeighted(int64(*workers))
	var (
		wg     sync.WaitGroup
		failed atomic.Int32
	)

	for _, f := range files {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func(path string) {
			defer wg.Done()
			defer sem.Release(1)

			h, err := imp.ImportFile(ctx, path)
			if err != nil {
				failed.Add(1)
				log.Warn().Str("file", filepath.Base(path)).Err(err).Msg("import failed")
				return
			}
			log.Info().Str("file", filepath.Base(path)).Str("hotel_id", h.HotelID).Str("slug", h.Slug).Msg("import ok")
		}(f)
	}

	wg.Wait()
	log.Info().Int("files", len(files)).Int32("failed", failed.Load()).Msg("import completed")
}
