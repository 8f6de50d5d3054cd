package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv        string
	LogLevel      string
	HTTPAddr      string
	MetricsAddr   string
	PublicBaseURL string
	DataDir       string
	ImageDir      string
	StoreDriver   string // file|mysql
	MySQLDSN      string
	RedisAddr     string // empty disables the cache
	RedisDB       int
	RedisPass     string
	CacheTTL      time.Duration
	MaxUploadMB   int
	FetchRPS      int
	ImportDir     string
	ImportWorkers int
}

// Load reads the environment, after merging an optional .env file from the
// working directory (existing variables win).
func Load() Config {
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg("loaded .env")
	}

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
			log.Warn().Str("key", k).Str("value", v).Msg("ignoring non-integer config value")
		}
		return def
	}
	c := Config{
		AppEnv:        env("APP_ENV", "prod"),
		LogLevel:      env("LOG_LEVEL", "info"),
		HTTPAddr:      env("HTTP_ADDR", ":3000"),
		MetricsAddr:   env("METRICS_ADDR", ""),
		PublicBaseURL: env("PUBLIC_BASE_URL", ""),
		DataDir:       env("DATA_DIR", "data"),
		ImageDir:      env("IMAGE_DIR", "uploads/images"),
		StoreDriver:   env("STORE_DRIVER", "file"),
		MySQLDSN:      env("MYSQL_DSN", "root:root@tcp(localhost:3306)/hotels?parseTime=true&charset=utf8mb4&loc=UTC"),
		RedisAddr:     env("REDIS_ADDR", ""),
		RedisPass:     env("REDIS_PASSWORD", ""),
		RedisDB:       atoi("REDIS_DB", 0),
		CacheTTL:      time.Duration(atoi("CACHE_TTL_SECONDS", 300)) * time.Second,
		MaxUploadMB:   atoi("MAX_UPLOAD_MB", 20),
		FetchRPS:      atoi("FETCH_RPS", 5),
		ImportDir:     env("IMPORT_DIR", "seed"),
		ImportWorkers: atoi("IMPORT_WORKERS", 4),
	}
	if c.StoreDriver != "file" && c.StoreDriver != "mysql" {
		log.Warn().Str("driver", c.StoreDriver).Msg("unknown STORE_DRIVER, using file")
		c.StoreDriver = "file"
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
