package pagination

import (
	"github.com/Sternrassler/cadastre-client/pkg/feature"
)

// PageKind classifies the result of a single page request.
type PageKind int

const (
	// PageOK carries features.
	PageOK PageKind = iota + 1

	// PageNotFound means the query is valid but has no (more) data.
	PageNotFound

	// PageAPIError means the API explicitly rejected the request.
	PageAPIError

	// PageTransportError means the request or its payload failed.
	PageTransportError
)

// String returns the metric/log label of the kind.
func (k PageKind) String() string {
	switch k {
	case PageOK:
		return "ok"
	case PageNotFound:
		return "not_found"
	case PageAPIError:
		return "api_error"
	case PageTransportError:
		return "transport_error"
	default:
		return "unknown"
	}
}

// PageResult is the classified outcome of fetching one page.
type PageResult struct {
	PageNumber int
	Kind       PageKind

	// Features and IsLastPage are only meaningful for PageOK.
	Features   []feature.Feature
	IsLastPage bool

	// Message is the human-readable error text for PageAPIError and
	// PageTransportError; Err is the underlying typed error.
	Message string
	Err     error
}

// OK returns a PageOK result. The page is the last one when it holds fewer
// than pageSize features.
func OK(page int, features []feature.Feature, pageSize int) PageResult {
	return PageResult{
		PageNumber: page,
		Kind:       PageOK,
		Features:   features,
		IsLastPage: len(features) < pageSize,
	}
}

// NotFound returns a PageNotFound result.
func NotFound(page int) PageResult {
	return PageResult{PageNumber: page, Kind: PageNotFound}
}

// APIError returns a PageAPIError result.
func APIError(page int, message string, err error) PageResult {
	return PageResult{PageNumber: page, Kind: PageAPIError, Message: message, Err: err}
}

// TransportError returns a PageTransportError result.
func TransportError(page int, err error) PageResult {
	r := PageResult{PageNumber: page, Kind: PageTransportError, Err: err}
	if err != nil {
		r.Message = err.Error()
	}
	return r
}

// Status is the terminal state of a region collection.
type Status int

const (
	// StatusCollected means at least one feature was collected.
	StatusCollected Status = iota + 1

	// StatusEmpty means the region has no matching features.
	StatusEmpty

	// StatusFailed means the collection was aborted by an error.
	StatusFailed
)

// String returns the metric/log label of the status.
func (s Status) String() string {
	switch s {
	case StatusCollected:
		return "collected"
	case StatusEmpty:
		return "empty"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is the single terminal result of collecting a region.
type Outcome struct {
	Status Status

	// Collection is non-nil with at least one feature iff Status is StatusCollected.
	Collection *feature.Collection

	// Reason and Err describe a StatusFailed outcome. Cause is the page kind
	// that aborted the collection; it is zero when the context ended it.
	Reason string
	Err    error
	Cause  PageKind

	// Pages is the number of page requests issued.
	Pages int

	// Preloaded reports that the collection came from a preloaded dataset.
	Preloaded bool
}

func collected(c *feature.Collection, pages int) Outcome {
	return Outcome{Status: StatusCollected, Collection: c, Pages: pages}
}

func empty(pages int) Outcome {
	return Outcome{Status: StatusEmpty, Pages: pages}
}

func failed(reason string, err error, cause PageKind, pages int) Outcome {
	return Outcome{Status: StatusFailed, Reason: reason, Err: err, Cause: cause, Pages: pages}
}
