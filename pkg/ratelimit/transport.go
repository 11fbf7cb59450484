package ratelimit

import (
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// slowWait is the wait above which a throttled request is logged.
const slowWait = 500 * time.Millisecond

// Transport is an http.RoundTripper that gates every request through a
// shared token bucket before handing it to the base transport.
type Transport struct {
	base    http.RoundTripper
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// NewTransport creates a rate-limited transport allowing requestsPerSecond
// with the given burst. A non-positive rate disables limiting. A nil base
// uses http.DefaultTransport.
func NewTransport(base http.RoundTripper, requestsPerSecond float64, burst int, logger zerolog.Logger) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	if burst < 1 {
		burst = 1
	}

	limit := rate.Limit(requestsPerSecond)
	if requestsPerSecond <= 0 {
		limit = rate.Inf
	}

	return &Transport{
		base:    base,
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger,
	}
}

// Limit returns the configured request rate.
func (t *Transport) Limit() rate.Limit {
	return t.limiter.Limit()
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	waited := time.Since(start)
	limiterWaitSeconds.Observe(waited.Seconds())
	if waited > slowWait {
		t.logger.Warn().
			Str("host", req.URL.Host).
			Dur("wait", waited).
			Msg("Request throttled by rate limiter")
	}

	return t.base.RoundTrip(req)
}
