package observability_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"hotel_listings/internal/adapters/observability"
)

func TestMetricsRegistryAndHandler(t *testing.T) {
	reg := observability.InitRegistry()

	observability.ObserveHTTP("/api/hotel/{identifier}", "GET", 200, 12*time.Millisecond)
	observability.ObserveStore("file", "load", "ok")
	observability.ObserveImage("hotel", "path")

	mh := observability.MetricsHandler(reg)
	req := httptest.NewRequest("GET", "/metrics", nil)
	rr := httptest.NewRecorder()
	mh.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("metrics status: %d", rr.Code)
	}
	body, _ := io.ReadAll(rr.Body)
	out := string(body)
	for _, name := range []string{"hotels_http_requests_total", "hotels_store_operations_total", "hotels_images_persisted_total"} {
		if !strings.Contains(out, name) {
			t.Fatalf("expected %s in output", name)
		}
	}
}

func TestNewLogger_LevelFallback(t *testing.T) {
	l := observability.NewLogger("prod", "not-a-level")
	if got := l.GetLevel().String(); got != "info" {
		t.Fatalf("level = %s, want info", got)
	}
	l = observability.NewLogger("dev", "debug")
	if got := l.GetLevel().String(); got != "debug" {
		t.Fatalf("level = %s, want debug", got)
	}
}
