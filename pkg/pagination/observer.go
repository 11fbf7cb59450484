package pagination

import (
	"github.com/rs/zerolog"
)

// Observer receives progress notifications from a Collector. Implementations
// must not block; they run on the collecting goroutine.
type Observer interface {
	RegionStarted(query string)
	PageRequested(query string, page int)
	PageReceived(query string, result PageResult)
	RegionFinished(query string, outcome Outcome)
}

// NopObserver ignores all notifications.
type NopObserver struct{}

func (NopObserver) RegionStarted(string) {}

func (NopObserver) PageRequested(string, int) {}

func (NopObserver) PageReceived(string, PageResult) {}

func (NopObserver) RegionFinished(string, Outcome) {}

// LogObserver reports progress through a zerolog logger.
type LogObserver struct {
	Logger zerolog.Logger
}

// RegionStarted implements Observer.
func (o LogObserver) RegionStarted(query string) {
	o.Logger.Info().Str("query", query).Msg("Loading cadastral region")
}

// PageRequested implements Observer.
func (o LogObserver) PageRequested(query string, page int) {
	o.Logger.Debug().Str("query", query).Int("page", page).Msg("Requesting page")
}

// PageReceived implements Observer.
func (o LogObserver) PageReceived(query string, result PageResult) {
	switch result.Kind {
	case PageOK:
		o.Logger.Debug().
			Str("query", query).
			Int("page", result.PageNumber).
			Int("features", len(result.Features)).
			Bool("last_page", result.IsLastPage).
			Msg("Page received")
	case PageNotFound:
		o.Logger.Debug().
			Str("query", query).
			Int("page", result.PageNumber).
			Msg("Page not found - end of region")
	case PageAPIError:
		o.Logger.Warn().
			Str("query", query).
			Int("page", result.PageNumber).
			Str("error_text", result.Message).
			Msg("API error")
	default:
		o.Logger.Error().
			Err(result.Err).
			Str("query", query).
			Int("page", result.PageNumber).
			Msg("Page request failed")
	}
}

// RegionFinished implements Observer.
func (o LogObserver) RegionFinished(query string, outcome Outcome) {
	event := o.Logger.Info()
	if outcome.Status == StatusFailed {
		event = o.Logger.Warn().Str("reason", outcome.Reason)
	}
	event.
		Str("query", query).
		Str("status", outcome.Status.String()).
		Int("features", outcome.Collection.Len()).
		Int("pages", outcome.Pages).
		Bool("preloaded", outcome.Preloaded).
		Msg("Region load finished")
}
