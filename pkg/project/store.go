package project

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ErrNotFound is returned by Load when no project has been saved.
	ErrNotFound = errors.New("project not found")

	// ErrQuotaExceeded is returned by Save when the encoded project is larger
	// than the store allows.
	ErrQuotaExceeded = errors.New("project storage quota exceeded")

	// ErrInvalidState is returned by Load for undecodable or incomplete data.
	ErrInvalidState = errors.New("invalid project state")
)

// Prometheus metrics for project persistence.
var (
	storeOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cadastre_project_store_operations_total",
		Help: "Total project store operations by store, operation and result",
	}, []string{"store", "operation", "result"})

	stateSizeBytes = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "cadastre_project_state_bytes",
		Help: "Encoded size of the last saved project state",
	}, []string{"store"})
)

// Store saves and loads a project state.
type Store interface {
	// Save persists s, stamping UpdatedAt.
	Save(ctx context.Context, s *State) error

	// Load returns the persisted state or ErrNotFound.
	Load(ctx context.Context) (*State, error)
}

func observe(store, operation string, err error) {
	result := "success"
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound):
		result = "not_found"
	case errors.Is(err, ErrQuotaExceeded):
		result = "quota_exceeded"
	default:
		result = "error"
	}
	storeOperationsTotal.WithLabelValues(store, operation, result).Inc()
}
