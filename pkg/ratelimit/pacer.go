// Package ratelimit keeps request volume against the feature API polite:
// a fixed pause between consecutive pages of one region, and a shared
// token-bucket budget across all requests of the process.
package ratelimit

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for rate limiting.
var (
	pacerWaitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cadastre_page_delays_total",
		Help: "Total number of inter-page courtesy delays",
	})

	limiterWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cadastre_ratelimit_wait_seconds",
		Help:    "Time requests spent waiting for the shared request budget",
		Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5},
	})
)

// Pacer pauses for a fixed delay.
type Pacer struct {
	delay time.Duration
}

// NewPacer creates a pacer with the given delay. A non-positive delay
// disables pausing.
func NewPacer(delay time.Duration) *Pacer {
	return &Pacer{delay: delay}
}

// Delay returns the configured delay.
func (p *Pacer) Delay() time.Duration {
	return p.delay
}

// Wait blocks for the configured delay or until ctx is done, in which case
// the context error is returned.
func (p *Pacer) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.delay <= 0 {
		return nil
	}

	pacerWaitsTotal.Inc()

	timer := time.NewTimer(p.delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
