package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/cadastre-client/pkg/cache"
	"github.com/Sternrassler/cadastre-client/pkg/feature"
	"github.com/Sternrassler/cadastre-client/pkg/geometry"
	"github.com/Sternrassler/cadastre-client/pkg/logging"
	"github.com/Sternrassler/cadastre-client/pkg/metrics"
	"github.com/Sternrassler/cadastre-client/pkg/pagination"
)

// maxQueryLength is the length of a full parcel number (PNU).
const maxQueryLength = 19

type server struct {
	collector pagination.RegionCollector

	// Optional; nil without Redis.
	cache *cache.Manager
	redis *redis.Client

	timeout time.Duration
}

// regionSummary is the body of /regions/{query}/summary.
type regionSummary struct {
	Query        string                `json:"query"`
	Source       string                `json:"source"`
	Pages        int                   `json:"pages"`
	Features     int                   `json:"features"`
	Total        geometry.Measurement  `json:"total"`
	Measurements []feature.Measurement `json:"measurements"`
}

type errorResponse struct {
	Query string `json:"query,omitempty"`
	Error string `json:"error"`
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler)
	mux.HandleFunc("GET /ready", s.readyHandler)
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /regions/{query}", s.regionHandler)
	mux.HandleFunc("GET /regions/{query}/summary", s.summaryHandler)
	return logging.RequestLogger(mux)
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}

func (s *server) readyHandler(w http.ResponseWriter, r *http.Request) {
	if s.redis != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.redis.Ping(ctx).Err(); err != nil {
			http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}

// regionHandler serves all parcels of a region as GeoJSON. Measurements are
// added as properties unless ?measure=false.
func (s *server) regionHandler(w http.ResponseWriter, r *http.Request) {
	query, outcome, ok := s.collect(w, r)
	if !ok {
		return
	}

	measure := r.URL.Query().Get("measure") != "false"
	data, err := outcome.Collection.ToGeoJSON(measure)
	if err != nil {
		log.Error().Err(err).Str("query", query).Msg("Failed to encode region")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Query: query, Error: "encode region"})
		return
	}

	setRegionHeaders(w, outcome)
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		log.Debug().Err(err).Msg("Failed to write response")
	}
}

// summaryHandler serves per-parcel measurements and their totals.
func (s *server) summaryHandler(w http.ResponseWriter, r *http.Request) {
	query, outcome, ok := s.collect(w, r)
	if !ok {
		return
	}

	setRegionHeaders(w, outcome)
	writeJSON(w, http.StatusOK, regionSummary{
		Query:        query,
		Source:       source(outcome),
		Pages:        outcome.Pages,
		Features:     outcome.Collection.Len(),
		Total:        outcome.Collection.Totals(),
		Measurements: outcome.Collection.Measure(),
	})
}

// collect runs the region collection for the request and writes the error
// response for anything but a collected region.
func (s *server) collect(w http.ResponseWriter, r *http.Request) (string, pagination.Outcome, bool) {
	query := r.PathValue("query")
	if !validQuery(query) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Query: query, Error: "query must be 1 to 19 digits"})
		return query, pagination.Outcome{}, false
	}

	ctx := r.Context()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	outcome := s.collector.Collect(ctx, query)

	switch outcome.Status {
	case pagination.StatusCollected:
		if !outcome.Preloaded && s.cache != nil {
			if err := s.cache.Store(ctx, query, outcome.Collection); err != nil {
				log.Warn().Err(err).Str("query", query).Msg("Failed to cache region")
			}
		}
		return query, outcome, true
	case pagination.StatusEmpty:
		writeJSON(w, http.StatusNotFound, errorResponse{Query: query, Error: "no parcels found"})
	default:
		writeJSON(w, http.StatusBadGateway, errorResponse{Query: query, Error: outcome.Reason})
	}
	return query, outcome, false
}

func validQuery(q string) bool {
	if q == "" || len(q) > maxQueryLength {
		return false
	}
	for _, c := range q {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func source(o pagination.Outcome) string {
	if o.Preloaded {
		return "preloaded"
	}
	return "vworld"
}

func setRegionHeaders(w http.ResponseWriter, o pagination.Outcome) {
	w.Header().Set("X-Region-Source", source(o))
	w.Header().Set("X-Region-Pages", strconv.Itoa(o.Pages))
	w.Header().Set("X-Region-Features", strconv.Itoa(o.Collection.Len()))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug().Err(err).Msg("Failed to write response")
	}
}
