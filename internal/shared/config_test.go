package shared

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"HTTP_ADDR", "STORE_DRIVER", "CACHE_TTL_SECONDS", "DATA_DIR", "REDIS_ADDR"} {
		t.Setenv(k, "")
	}
	c := Load()
	if c.HTTPAddr != ":3000" || c.StoreDriver != "file" || c.DataDir != "data" {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	if c.CacheTTL != 300*time.Second {
		t.Fatalf("cache ttl = %v", c.CacheTTL)
	}
	if c.RedisAddr != "" {
		t.Fatalf("cache should be disabled by default")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("IMPORT_WORKERS", "oops")
	t.Setenv("CACHE_TTL_SECONDS", "5")
	c := Load()
	if c.StoreDriver != "file" {
		t.Fatalf("unknown driver should fall back to file, got %q", c.StoreDriver)
	}
	if c.ImportWorkers != 4 {
		t.Fatalf("bad int should fall back to default, got %d", c.ImportWorkers)
	}
	if c.CacheTTL != 5*time.Second {
		t.Fatalf("cache ttl = %v", c.CacheTTL)
	}
}
