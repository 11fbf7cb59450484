// Package testutil provides testing utilities for the cadastre client.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
)

// MockPageKey identifies one page of one query.
type MockPageKey struct {
	Query string
	Page  int
}

// MockVWorld is a configurable mock of the VWorld data API.
//
// Regions are registered with a feature count and served page by page; a
// page starting beyond the last feature answers NOT FOUND, as does an
// unknown query.
type MockVWorld struct {
	server *httptest.Server
	mu     sync.RWMutex

	regions   map[string]int
	overrides map[MockPageKey]http.HandlerFunc

	// Tracking
	requestCount    int
	requestsByQuery map[string]int
	lastQuery       url.Values
}

// NewMockVWorld creates and starts a mock VWorld server.
func NewMockVWorld() *MockVWorld {
	mock := &MockVWorld{
		regions:         make(map[string]int),
		overrides:       make(map[MockPageKey]http.HandlerFunc),
		requestsByQuery: make(map[string]int),
	}
	mock.server = httptest.NewServer(http.HandlerFunc(mock.handle))
	return mock
}

// URL returns the data endpoint URL of the mock server.
func (m *MockVWorld) URL() string {
	return m.server.URL + "/req/data"
}

// Close shuts down the mock server.
func (m *MockVWorld) Close() {
	m.server.Close()
}

// Reset clears tracking counters.
func (m *MockVWorld) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount = 0
	m.requestsByQuery = make(map[string]int)
	m.lastQuery = nil
}

// SetRegion registers a region holding total features.
func (m *MockVWorld) SetRegion(query string, total int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.regions[query] = total
}

// SetError makes every request for query answer with an ERROR envelope.
func (m *MockVWorld) SetError(query, code, text string) {
	m.SetPageHandler(query, 0, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, ErrorEnvelope(code, text))
	})
}

// SetPageHandler overrides the response for one page of query. Page 0
// matches every page of the query.
func (m *MockVWorld) SetPageHandler(query string, page int, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.overrides[MockPageKey{Query: query, Page: page}] = handler
}

// RequestCount returns the number of requests made to the server.
func (m *MockVWorld) RequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestCount
}

// RequestsFor returns the number of requests made for query.
func (m *MockVWorld) RequestsFor(query string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestsByQuery[query]
}

// LastQuery returns the query parameters of the most recent request.
func (m *MockVWorld) LastQuery() url.Values {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastQuery
}

func (m *MockVWorld) handle(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	query := filterValue(params.Get("attrFilter"))
	page, _ := strconv.Atoi(params.Get("page"))
	size, _ := strconv.Atoi(params.Get("size"))

	m.mu.Lock()
	m.requestCount++
	m.requestsByQuery[query]++
	m.lastQuery = params
	handler, ok := m.overrides[MockPageKey{Query: query, Page: page}]
	if !ok {
		handler, ok = m.overrides[MockPageKey{Query: query}]
	}
	total, known := m.regions[query]
	m.mu.Unlock()

	if ok {
		handler(w, r)
		return
	}

	if params.Get("key") == "" {
		writeJSON(w, ErrorEnvelope("PARAM_REQUIRED", "필수 파라미터인 <key>가 없어서 요청을 처리할수 없습니다."))
		return
	}

	if page < 1 || size < 1 {
		writeJSON(w, ErrorEnvelope("INVALID_RANGE", "invalid page or size"))
		return
	}

	start := (page - 1) * size
	if !known || start >= total {
		writeJSON(w, NotFoundEnvelope())
		return
	}

	end := start + size
	if end > total {
		end = total
	}

	features := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		features = append(features, ParcelFeature(query, i))
	}
	writeJSON(w, OKEnvelope(features))
}

// filterValue extracts the matched value from "pnu:like:<value>".
func filterValue(filter string) string {
	if i := strings.LastIndex(filter, ":like:"); i >= 0 {
		return filter[i+len(":like:"):]
	}
	return filter
}

func writeJSON(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(body))
}

// ParcelFeature returns the GeoJSON of the i-th synthetic parcel of query: a
// closed 0.0001° square MultiPolygon with ID "LP_PA_CBND_BUBUN.<query>.<i>".
func ParcelFeature(query string, i int) string {
	lon := 127.0 + float64(i%100)*0.0001
	lat := 36.0 + float64(i/100)*0.0001
	d := 0.0001
	return fmt.Sprintf(`{"type":"Feature","id":"LP_PA_CBND_BUBUN.%[6]s.%[1]d",`+
		`"geometry":{"type":"MultiPolygon","coordinates":[[[[%[2]g,%[3]g],[%[2]g,%[5]g],[%[4]g,%[5]g],[%[4]g,%[3]g],[%[2]g,%[3]g]]]]},`+
		`"properties":{"pnu":"%[6]s%011[1]d","jibun":"%[1]d"}}`,
		i, lon, lat, lon+d, lat+d, query)
}

// OKEnvelope wraps features in an OK response envelope.
func OKEnvelope(features []string) string {
	return fmt.Sprintf(`{"response":{"service":{"name":"data","version":"2.0","operation":"GetFeature"},`+
		`"status":"OK","record":{"total":"%d","current":"%d"},`+
		`"result":{"featureCollection":{"type":"FeatureCollection","features":[%s]}}}}`,
		len(features), len(features), strings.Join(features, ","))
}

// NotFoundEnvelope returns a NOT FOUND response envelope.
func NotFoundEnvelope() string {
	return `{"response":{"service":{"name":"data","version":"2.0","operation":"GetFeature"},"status":"NOT FOUND"}}`
}

// ErrorEnvelope returns an ERROR response envelope.
func ErrorEnvelope(code, text string) string {
	return fmt.Sprintf(`{"response":{"service":{"name":"data","version":"2.0","operation":"GetFeature"},`+
		`"status":"ERROR","error":{"level":"1","code":%q,"text":%q}}}`, code, text)
}
