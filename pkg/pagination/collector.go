package pagination

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/cadastre-client/pkg/feature"
	"github.com/Sternrassler/cadastre-client/pkg/ratelimit"
)

// Prometheus metrics for region collection.
var (
	regionOutcomesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cadastre_region_outcomes_total",
		Help: "Total region collections by terminal status",
	}, []string{"status"})

	regionPagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cadastre_region_pages_total",
		Help: "Total pages processed by the region collector by page result",
	}, []string{"result"})

	regionFeatures = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cadastre_region_features",
		Help:    "Number of features per collected region",
		Buckets: []float64{1, 10, 100, 1000, 5000, 10000, 20000},
	})

	regionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cadastre_region_duration_seconds",
		Help:    "Region collection duration in seconds",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
	})
)

// Defaults matching the VWorld data API limits.
const (
	DefaultPageSize  = 1000
	DefaultMaxPages  = 20
	DefaultPageDelay = 100 * time.Millisecond
)

// PageFetcher is the interface the API client must implement for single-page
// fetching. FetchPage performs exactly one request and never retries.
type PageFetcher interface {
	FetchPage(ctx context.Context, query string, pageNum, pageSize int) PageResult
}

// Pacer delays consecutive page requests.
type Pacer interface {
	Wait(ctx context.Context) error
}

// RegionCollector collects all features of a region query.
type RegionCollector interface {
	Collect(ctx context.Context, query string) Outcome
}

// Config holds collector configuration.
type Config struct {
	// PageSize is the number of features requested per page
	PageSize int

	// MaxPages caps the number of pages per region (MaxPages × PageSize features)
	MaxPages int

	// PageDelay is the pause between consecutive page requests.
	// Ignored when Pacer is set.
	PageDelay time.Duration

	// Pacer overrides the fixed PageDelay pacing (optional)
	Pacer Pacer

	// Preloaded datasets bypass the network when they hold the query (optional)
	Preloaded Preloaded

	// Observer receives progress notifications (optional)
	Observer Observer
}

// DefaultConfig returns the configuration used against the VWorld API.
func DefaultConfig() Config {
	return Config{
		PageSize:  DefaultPageSize,
		MaxPages:  DefaultMaxPages,
		PageDelay: DefaultPageDelay,
	}
}

// Collector drives a PageFetcher through the pages of a region.
// It holds no per-region state and is safe for concurrent use.
type Collector struct {
	fetcher   PageFetcher
	config    Config
	pacer     Pacer
	preloaded Preloaded
	observer  Observer
}

// NewCollector creates a new region collector.
func NewCollector(fetcher PageFetcher, config Config) *Collector {
	if config.PageSize <= 0 {
		config.PageSize = DefaultPageSize
	}
	if config.MaxPages <= 0 {
		config.MaxPages = DefaultMaxPages
	}
	if config.PageDelay < 0 {
		config.PageDelay = 0
	}

	pacer := config.Pacer
	if pacer == nil {
		pacer = ratelimit.NewPacer(config.PageDelay)
	}

	var observer Observer = NopObserver{}
	if config.Observer != nil {
		observer = config.Observer
	}

	return &Collector{
		fetcher:   fetcher,
		config:    config,
		pacer:     pacer,
		preloaded: config.Preloaded,
		observer:  observer,
	}
}

// Collect fetches every page of query and returns a single terminal outcome.
func (c *Collector) Collect(ctx context.Context, query string) Outcome {
	start := time.Now()
	c.observer.RegionStarted(query)

	outcome := c.collect(ctx, query)

	regionOutcomesTotal.WithLabelValues(outcome.Status.String()).Inc()
	regionDuration.Observe(time.Since(start).Seconds())
	if outcome.Status == StatusCollected {
		regionFeatures.Observe(float64(outcome.Collection.Len()))
	}

	log.Debug().
		Str("query", query).
		Str("status", outcome.Status.String()).
		Int("pages", outcome.Pages).
		Dur("duration", time.Since(start)).
		Msg("Region collection complete")

	c.observer.RegionFinished(query, outcome)
	return outcome
}

func (c *Collector) collect(ctx context.Context, query string) Outcome {
	if c.preloaded != nil {
		if ds, ok := c.preloaded.Lookup(ctx, query); ok {
			outcome := collected(ds, 0)
			outcome.Preloaded = true
			return outcome
		}
	}

	var features []feature.Feature
	pages := 0

pageLoop:
	for page := 1; page <= c.config.MaxPages; page++ {
		if page > 1 {
			if err := c.pacer.Wait(ctx); err != nil {
				return failed(err.Error(), err, 0, pages)
			}
		}

		c.observer.PageRequested(query, page)
		result := c.fetcher.FetchPage(ctx, query, page, c.config.PageSize)
		pages++
		regionPagesTotal.WithLabelValues(result.Kind.String()).Inc()
		c.observer.PageReceived(query, result)

		switch result.Kind {
		case PageOK:
			features = append(features, result.Features...)
			if result.IsLastPage {
				break pageLoop
			}
		case PageNotFound:
			break pageLoop
		case PageAPIError, PageTransportError:
			err := result.Err
			if err == nil {
				err = errors.New(result.Message)
			}
			cause := result.Kind
			if ctx.Err() != nil {
				cause = 0
			}
			return failed(result.Message, err, cause, pages)
		default:
			err := fmt.Errorf("page %d: unexpected page result kind %d", page, result.Kind)
			return failed(err.Error(), err, result.Kind, pages)
		}
	}

	if len(features) == 0 {
		return empty(pages)
	}
	return collected(feature.NewCollection(features), pages)
}
