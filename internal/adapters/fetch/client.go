// Package fetch downloads remote images with client-side rate limiting and retries.
package fetch

import (
	"context"
	crand "crypto/rand"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"hotel_listings/internal/adapters/observability"
	"hotel_listings/internal/domain"
)

const maxAttempts = 4

var ErrNotFound = fmt.Errorf("fetch: %w", domain.ErrSourceNotFound)

type Client struct {
	hc       *http.Client
	rl       *rate.Limiter
	maxBytes int64
}

// New builds a client allowing rps requests per second and bodies up to maxBytes.
func New(rps int, maxBytes int64) *Client {
	if rps <= 0 {
		rps = 5
	}
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	return &Client{
		hc:       &http.Client{Timeout: 20 * time.Second},
		rl:       rate.NewLimiter(rate.Limit(rps), rps),
		maxBytes: maxBytes,
	}
}

// Fetch GETs rawURL and returns the body with its declared Content-Type.
// 404/410 map to ErrNotFound; 429 and transient 5xx are retried, honoring Retry-After.
func (c *Client) Fetch(ctx context.Context, rawURL string) ([]byte, string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, "", fmt.Errorf("%w: %q is not an http(s) url", domain.ErrValidation, rawURL)
	}
	if err := c.rl.Wait(ctx); err != nil {
		return nil, "", err
	}

	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, "", err
		}
		req.Header.Set("Accept", "image/*")
		req.Header.Set("User-Agent", "hotel-listings/1.0")

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			observability.ObserveFetch(u.Host, 0, time.Since(start))
			if ctx.Err() != nil {
				return nil, "", ctx.Err()
			}
			lastErr = err
			if i < maxAttempts-1 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return nil, "", ctx.Err()
			}
			return nil, "", lastErr
		}
		observability.ObserveFetch(u.Host, resp.StatusCode, time.Since(start))

		switch resp.StatusCode {
		case http.StatusOK:
			body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
			resp.Body.Close()
			if err != nil {
				return nil, "", err
			}
			if int64(len(body)) > c.maxBytes {
				return nil, "", fmt.Errorf("%w: image larger than %d bytes", domain.ErrValidation, c.maxBytes)
			}
			return body, resp.Header.Get("Content-Type"), nil

		case http.StatusNotFound, http.StatusGone:
			resp.Body.Close()
			return nil, "", fmt.Errorf("%w: %s", ErrNotFound, rawURL)

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("remote %d", resp.StatusCode)
			if i < maxAttempts-1 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return nil, "", ctx.Err()
			}
			return nil, "", lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return nil, "", fmt.Errorf("bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}
	if lastErr == nil {
		lastErr = errors.New("fetch: no attempt succeeded")
	}
	return nil, "", lastErr
}

// sleepCtx waits for d or returns false early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After (seconds or HTTP-date); 0 when absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff: 200ms, 400ms, 800ms... plus up to 50% jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	return base + time.Duration(0.5*f*float64(base))
}
