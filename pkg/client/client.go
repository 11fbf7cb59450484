// Package client provides the VWorld data API client that fetches and
// classifies single pages of cadastral features.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/cadastre-client/pkg/feature"
	"github.com/Sternrassler/cadastre-client/pkg/pagination"
	"github.com/Sternrassler/cadastre-client/pkg/ratelimit"
)

// Prometheus metrics for VWorld client operations.
var (
	pageRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cadastre_page_requests_total",
		Help: "Total VWorld page requests by classified result",
	}, []string{"result"})

	pageRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cadastre_page_request_duration_seconds",
		Help:    "VWorld page request duration in seconds",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cadastre_errors_total",
		Help: "Total VWorld errors by class",
	}, []string{"class"})
)

// ErrorClass represents a classification of page request failures.
type ErrorClass string

const (
	// ErrorClassAPI represents an explicit rejection in the response envelope.
	ErrorClassAPI ErrorClass = "api"

	// ErrorClassTransport represents network, HTTP and payload failures.
	ErrorClassTransport ErrorClass = "transport"
)

// Envelope status values.
const (
	StatusOK            = "OK"
	StatusNotFound      = "NOT FOUND"
	StatusNotFoundUnder = "NOT_FOUND"
	StatusError         = "ERROR"
)

// Defaults for the VWorld data API.
const (
	DefaultBaseURL    = "https://api.vworld.kr/req/data"
	DefaultLayer      = "LP_PA_CBND_BUBUN"
	DefaultAttrFilter = "pnu"
	DefaultTimeout    = 10 * time.Second
)

// Doer executes HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config holds the client configuration.
type Config struct {
	// BaseURL of the data endpoint
	BaseURL string

	// APIKey and Domain identify the registered VWorld application
	APIKey string
	Domain string

	// Layer is the data layer to query (cadastral boundaries by default)
	Layer string

	// AttrFilter is the attribute matched by prefix against the query
	AttrFilter string

	UserAgent string

	// Timeout per request
	Timeout time.Duration

	// Shared request budget (0 disables limiting)
	RequestsPerSecond float64
	Burst             int

	// HTTPClient overrides the transport (optional, mainly for tests)
	HTTPClient Doer
}

// DefaultConfig returns a default configuration for the given credentials.
func DefaultConfig(apiKey, domain string) Config {
	return Config{
		BaseURL:           DefaultBaseURL,
		APIKey:            apiKey,
		Domain:            domain,
		Layer:             DefaultLayer,
		AttrFilter:        DefaultAttrFilter,
		UserAgent:         "cadastre-client/0.1.0",
		Timeout:           DefaultTimeout,
		RequestsPerSecond: 5,
		Burst:             1,
	}
}

// Client fetches single pages from the VWorld data API.
type Client struct {
	httpClient Doer
	baseURL    *url.URL
	config     Config
	logger     zerolog.Logger
}

var _ pagination.PageFetcher = (*Client)(nil)

// New creates a new VWorld client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}
	baseURL, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if baseURL.Scheme == "" || baseURL.Host == "" {
		return nil, fmt.Errorf("base url must be absolute (got %q)", cfg.BaseURL)
	}

	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}

	if cfg.Layer == "" {
		cfg.Layer = DefaultLayer
	}
	if cfg.AttrFilter == "" {
		cfg.AttrFilter = DefaultAttrFilter
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	logger := log.With().Str("component", "vworld-client").Logger()

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: ratelimit.NewTransport(nil, cfg.RequestsPerSecond, cfg.Burst, logger),
		}
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		config:     cfg,
		logger:     logger,
	}, nil
}

// PageURL returns the request URL for one page of query.
func (c *Client) PageURL(query string, pageNum, pageSize int) string {
	u := *c.baseURL
	q := u.Query()
	q.Set("service", "data")
	q.Set("request", "GetFeature")
	q.Set("data", c.config.Layer)
	q.Set("key", c.config.APIKey)
	if c.config.Domain != "" {
		q.Set("domain", c.config.Domain)
	}
	q.Set("attrFilter", c.config.AttrFilter+":like:"+query)
	q.Set("geometry", "true")
	q.Set("format", "json")
	q.Set("size", strconv.Itoa(pageSize))
	q.Set("page", strconv.Itoa(pageNum))
	u.RawQuery = q.Encode()
	return u.String()
}

// envelope is the VWorld response wrapper.
type envelope struct {
	Response *struct {
		Status string `json:"status"`
		Error  *struct {
			Code string `json:"code"`
			Text string `json:"text"`
		} `json:"error"`
		Result *struct {
			FeatureCollection *struct {
				Features json.RawMessage `json:"features"`
			} `json:"featureCollection"`
		} `json:"result"`
	} `json:"response"`
}

// FetchPage performs a single request for one page and classifies the result.
// It never retries.
func (c *Client) FetchPage(ctx context.Context, query string, pageNum, pageSize int) pagination.PageResult {
	if pageSize <= 0 {
		pageSize = pagination.DefaultPageSize
	}

	startTime := time.Now()
	result := c.fetchPage(ctx, query, pageNum, pageSize)
	pageRequestDuration.Observe(time.Since(startTime).Seconds())
	pageRequestsTotal.WithLabelValues(result.Kind.String()).Inc()

	return result
}

func (c *Client) fetchPage(ctx context.Context, query string, pageNum, pageSize int) pagination.PageResult {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.PageURL(query, pageNum, pageSize), nil)
	if err != nil {
		return c.transportError(pageNum, 0, "create request", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	c.logger.Debug().
		Str("layer", c.config.Layer).
		Str("query", query).
		Int("page", pageNum).
		Int("size", pageSize).
		Msg("Requesting page")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.transportError(pageNum, 0, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return c.transportError(pageNum, resp.StatusCode, resp.Status, ErrUnexpectedStatus)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.transportError(pageNum, resp.StatusCode, "read response body", err)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return c.transportError(pageNum, resp.StatusCode, "decode envelope", fmt.Errorf("%w: %v", ErrMalformedResponse, err))
	}
	if env.Response == nil {
		return c.transportError(pageNum, resp.StatusCode, "decode envelope", fmt.Errorf("%w: missing response object", ErrMalformedResponse))
	}

	switch status := env.Response.Status; status {
	case StatusOK:
		if env.Response.Result == nil || env.Response.Result.FeatureCollection == nil {
			return c.transportError(pageNum, resp.StatusCode, "decode envelope", fmt.Errorf("%w: missing featureCollection", ErrMalformedResponse))
		}
		raw := env.Response.Result.FeatureCollection.Features
		if len(raw) == 0 || string(raw) == "null" {
			// OK without features ends the region like a short page.
			return pagination.OK(pageNum, nil, pageSize)
		}

		features, err := feature.DecodeFeatures(raw)
		if err != nil {
			return c.transportError(pageNum, resp.StatusCode, "decode features", fmt.Errorf("%w: %v", ErrMalformedResponse, err))
		}
		return pagination.OK(pageNum, features, pageSize)

	case StatusNotFound, StatusNotFoundUnder:
		return pagination.NotFound(pageNum)

	default:
		text, code := UnknownErrorText, ""
		if e := env.Response.Error; e != nil {
			code = e.Code
			if e.Text != "" {
				text = e.Text
			}
		}

		errorsTotal.WithLabelValues(string(ErrorClassAPI)).Inc()
		c.logger.Warn().
			Int("page", pageNum).
			Str("status", status).
			Str("code", code).
			Str("error_text", text).
			Msg("VWorld API error")

		return pagination.APIError(pageNum, text, &VWorldError{
			ErrorClass: ErrorClassAPI,
			Page:       pageNum,
			Status:     status,
			Code:       code,
			HTTPStatus: resp.StatusCode,
			Message:    text,
		})
	}
}

func (c *Client) transportError(pageNum, httpStatus int, msg string, err error) pagination.PageResult {
	errorsTotal.WithLabelValues(string(ErrorClassTransport)).Inc()
	c.logger.Error().
		Err(err).
		Int("page", pageNum).
		Int("http_status", httpStatus).
		Msg("VWorld request failed")

	return pagination.TransportError(pageNum, &VWorldError{
		ErrorClass: ErrorClassTransport,
		Page:       pageNum,
		HTTPStatus: httpStatus,
		Message:    msg,
		Err:        err,
	})
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client Doer) {
	c.httpClient = client
}
