package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "hotels", Name: "http_requests_total", Help: "HTTP requests."},
		[]string{"route", "method", "status"},
	)
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "hotels", Name: "http_request_duration_seconds",
			Help:    "HTTP request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	FetchRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "hotels", Name: "image_fetch_requests_total", Help: "Outbound image fetches."},
		[]string{"host", "status"},
	)
	FetchLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "hotels", Name: "image_fetch_duration_seconds",
			Help:    "Outbound image fetch duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"host"},
	)
	CacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "hotels", Name: "cache_events_total", Help: "Cache hits/misses/sets/dels."},
		[]string{"cache", "event"}, // event: hit|miss|set|del
	)
	StoreOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "hotels", Name: "store_operations_total", Help: "Record store operations."},
		[]string{"backend", "op", "result"}, // result: ok|not_found|corrupt|error
	)
	ImagesPersisted = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "hotels", Name: "images_persisted_total", Help: "Image files written."},
		[]string{"kind", "source"},
	)
)

// Serve exposes the default registry on its own listener; empty addr disables it.
func Serve(addr string) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		srv := &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		log.Info().Str("addr", addr).Msg("metrics server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
}

func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(HTTPRequests, HTTPLatency, FetchRequests, FetchLatency, CacheEvents, StoreOps, ImagesPersisted)
	return reg
}

func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func ObserveHTTP(route, method string, status int, dur time.Duration) {
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPLatency.WithLabelValues(route, method).Observe(dur.Seconds())
}

func ObserveFetch(host string, status int, dur time.Duration) {
	FetchRequests.WithLabelValues(host, strconv.Itoa(status)).Inc()
	FetchLatency.WithLabelValues(host).Observe(dur.Seconds())
}

func ObserveCache(cache, event string) {
	CacheEvents.WithLabelValues(cache, event).Inc()
}

func ObserveStore(backend, op, result string) {
	StoreOps.WithLabelValues(backend, op, result).Inc()
}

func ObserveImage(kind, source string) {
	ImagesPersisted.WithLabelValues(kind, source).Inc()
}
