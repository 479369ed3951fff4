// Package testutil provides testing utilities for the pagination packages.
package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"time"
)

// MockResponse defines the behavior for a mock endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockAPI is a configurable mock paged JSON API.
//
// Unless a handler is set for a path, every request is answered with a page
// of the configured records: {"data": [...], "total": N}. Requests carrying a
// callback parameter are answered as JSONP.
type MockAPI struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)
	records  []any
	delays   map[int]time.Duration
	jsonp    string

	// Tracking
	RequestCount int
	LastQuery    url.Values
	LastMethod   string
	LastBody     []byte
}

// NewMockAPI creates a mock API serving records.
func NewMockAPI(records []any) *MockAPI {
	mock := &MockAPI{
		handlers: make(map[string]func(w http.ResponseWriter, r *http.Request)),
		records:  records,
		delays:   make(map[int]time.Duration),
		jsonp:    "callback",
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil {
			body, _ = io.ReadAll(r.Body)
		}

		mock.mu.Lock()
		mock.RequestCount++
		mock.LastQuery = r.URL.Query()
		mock.LastMethod = r.Method
		mock.LastBody = body
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.Unlock()

		if exists {
			handler(w, r)
			return
		}
		mock.pageHandler(w, r, body)
	}))

	return mock
}

// Records returns n records of the form {"id": i, "name": "item-i"}, starting at 1.
func Records(n int) []any {
	out := make([]any, n)
	for i := range out {
		out[i] = map[string]any{"id": float64(i + 1), "name": fmt.Sprintf("item-%d", i+1)}
	}
	return out
}

// URL returns the mock server URL.
func (m *MockAPI) URL() string {
	return m.server.URL
}

// Client returns an HTTP client for the mock server.
func (m *MockAPI) Client() *http.Client {
	return m.server.Client()
}

// Close shuts down the mock server.
func (m *MockAPI) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockAPI) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.LastQuery = nil
	m.LastMethod = ""
	m.LastBody = nil
}

// SetHandler sets a custom handler for a specific path.
func (m *MockAPI) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a fixed response for a path.
func (m *MockAPI) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}
		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// SetRecords replaces the records served by the default handler.
func (m *MockAPI) SetRecords(records []any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = records
}

// SetPageDelay delays the default answer for one page number.
func (m *MockAPI) SetPageDelay(page int, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delays[page] = d
}

// SetJSONPParam sets the query parameter naming the JSONP callback.
func (m *MockAPI) SetJSONPParam(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jsonp = name
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockAPI) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetLastQuery returns the query of the most recent request.
func (m *MockAPI) GetLastQuery() url.Values {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.LastQuery
}

// GetLastBody returns the body of the most recent request.
func (m *MockAPI) GetLastBody() []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.LastBody
}

// pageHandler answers with the requested page of records. Page parameters
// come from the query, or from a JSON body for non-GET requests.
func (m *MockAPI) pageHandler(w http.ResponseWriter, r *http.Request, body []byte) {
	q := r.URL.Query()
	params := map[string]any{}
	for k := range q {
		params[k] = q.Get(k)
	}
	if r.Method != http.MethodGet && len(body) > 0 {
		json.Unmarshal(body, &params)
	}

	number := intParam(params["pageNumber"], 1)
	size := intParam(params["pageSize"], 10)

	m.mu.RLock()
	delay := m.delays[number]
	records := m.records
	jsonpParam := m.jsonp
	m.mu.RUnlock()
	if delay > 0 {
		time.Sleep(delay)
	}

	start := min(max((number-1)*size, 0), len(records))
	end := min(start+size, len(records))
	payload, _ := json.Marshal(map[string]any{
		"data":  records[start:end],
		"total": len(records),
	})

	if cb := q.Get(jsonpParam); cb != "" {
		w.Header().Set("Content-Type", "application/javascript")
		fmt.Fprintf(w, "/**/%s(%s);", cb, payload)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(payload)
}

func intParam(v any, def int) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case string:
		if i, err := strconv.Atoi(n); err == nil {
			return i
		}
	}
	return def
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"error": "Internal server error"}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewJSONResponse creates a 200 OK response with a JSON body.
func NewJSONResponse(body string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       body,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}
