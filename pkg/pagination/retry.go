package pagination

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for region retries.
var (
	regionRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cadastre_region_retries_total",
		Help: "Total number of whole-region retry attempts",
	})

	regionRetryBackoffSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cadastre_region_retry_backoff_seconds",
		Help:    "Backoff duration before a whole-region retry",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
	})

	regionRetryExhaustedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cadastre_region_retry_exhausted_total",
		Help: "Total number of regions that failed after all retry attempts",
	})
)

var (
	// ErrRetryExhausted is returned when all retry attempts are exhausted.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrContextCancelled is returned when the context is cancelled during retry.
	ErrContextCancelled = errors.New("context cancelled")
)

// RetryConfig holds the configuration for whole-region retries.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including the initial collection).
	MaxAttempts int

	// InitialBackoff is the initial backoff duration.
	InitialBackoff time.Duration

	// MaxBackoff is the maximum backoff duration.
	MaxBackoff time.Duration

	// BackoffMultiplier is the multiplier for exponential backoff.
	BackoffMultiplier float64
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    2 * time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// RetryingCollector re-runs a whole region collection when it fails with a
// transport error. API errors, empty regions and context failures are
// returned as they are; partial pages are never resumed.
type RetryingCollector struct {
	next   RegionCollector
	config RetryConfig
}

// NewRetryingCollector wraps next with whole-region retries.
func NewRetryingCollector(next RegionCollector, config RetryConfig) *RetryingCollector {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 1
	}
	if config.BackoffMultiplier < 1 {
		config.BackoffMultiplier = 1
	}
	return &RetryingCollector{next: next, config: config}
}

// shouldRetry reports whether a failed outcome is worth collecting again.
func shouldRetry(o Outcome) bool {
	return o.Status == StatusFailed && o.Cause == PageTransportError
}

// Collect implements RegionCollector.
func (r *RetryingCollector) Collect(ctx context.Context, query string) Outcome {
	backoff := r.config.InitialBackoff

	var outcome Outcome
	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		outcome = r.next.Collect(ctx, query)
		if !shouldRetry(outcome) {
			if attempt > 1 && outcome.Status != StatusFailed {
				log.Info().
					Str("query", query).
					Int("attempt", attempt).
					Msg("Region collected after retry")
			}
			return outcome
		}

		if attempt >= r.config.MaxAttempts {
			break
		}

		regionRetriesTotal.Inc()

		// Add jitter (±20% randomness)
		jitter := time.Duration(float64(backoff) * (0.8 + rand.Float64()*0.4))
		regionRetryBackoffSeconds.Observe(jitter.Seconds())

		log.Debug().
			Str("query", query).
			Int("attempt", attempt).
			Dur("backoff", jitter).
			Str("reason", outcome.Reason).
			Msg("Retrying region after backoff")

		timer := time.NewTimer(jitter)
		select {
		case <-ctx.Done():
			timer.Stop()
			err := fmt.Errorf("%w: %v", ErrContextCancelled, ctx.Err())
			return failed(err.Error(), err, 0, outcome.Pages)
		case <-timer.C:
		}

		backoff = time.Duration(float64(backoff) * r.config.BackoffMultiplier)
		if backoff > r.config.MaxBackoff && r.config.MaxBackoff > 0 {
			backoff = r.config.MaxBackoff
		}
	}

	regionRetryExhaustedTotal.Inc()
	log.Warn().
		Str("query", query).
		Int("max_attempts", r.config.MaxAttempts).
		Msg("Region retry attempts exhausted")

	outcome.Err = fmt.Errorf("%w after %d attempts: %v", ErrRetryExhausted, r.config.MaxAttempts, outcome.Err)
	return outcome
}
