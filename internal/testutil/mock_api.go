// Package testutil provides testing utilities for the Honeycomb client.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// MockResponse defines the behavior for a mock API endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Delay      time.Duration
}

// MockAPI is a configurable mock Honeycomb API server for testing.
type MockAPI struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]http.HandlerFunc

	requestCount  int
	lastTeamKey   string
	requestCounts map[string]int
}

// NewMockAPI creates a new mock API server.
func NewMockAPI() *MockAPI {
	mock := &MockAPI{
		handlers:      make(map[string]http.HandlerFunc),
		requestCounts: make(map[string]int),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.requestCount++
		mock.requestCounts[r.URL.Path]++
		mock.lastTeamKey = r.Header.Get("X-Honeycomb-Team")
		mock.mu.Unlock()

		mock.mu.RLock()
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.RUnlock()

		if exists {
			handler(w, r)
			return
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error": "unknown endpoint"}`)
	}))

	return mock
}

// URL returns the mock server URL with a trailing slash, suitable as a
// client base URL.
func (m *MockAPI) URL() string {
	return m.server.URL + "/"
}

// Close shuts down the mock server.
func (m *MockAPI) Close() {
	m.server.Close()
}

// SetHandler sets a custom handler for a specific path.
func (m *MockAPI) SetHandler(path string, handler http.HandlerFunc) {
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
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			fmt.Fprint(w, resp.Body)
		}
	})
}

// SetJSON configures a 200 OK JSON response for a path.
func (m *MockAPI) SetJSON(path, body string) {
	m.SetResponse(path, MockResponse{StatusCode: http.StatusOK, Body: body})
}

// SetRateLimitedThenOK configures a path that responds 429 for the first n
// requests and succeeds with body afterwards.
func (m *MockAPI) SetRateLimitedThenOK(path string, n int, body string) {
	var mu sync.Mutex
	count := 0
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		count++
		limited := count <= n
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		if limited {
			w.WriteHeader(http.StatusTooManyRequests)
			fmt.Fprint(w, `{"error": "rate limit exceeded"}`)
			return
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, body)
	})
}

// SetCompleteOnPoll configures a query-result path that reports complete=false
// for the first k-1 requests and complete=true with completeBody on the kth.
func (m *MockAPI) SetCompleteOnPoll(path string, k int, completeBody string) {
	var mu sync.Mutex
	count := 0
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		count++
		done := count >= k
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if done {
			fmt.Fprint(w, completeBody)
			return
		}
		fmt.Fprint(w, `{"complete": false}`)
	})
}

// RequestCount returns the total number of requests the server received.
func (m *MockAPI) RequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestCount
}

// RequestCountFor returns the number of requests a specific path received.
func (m *MockAPI) RequestCountFor(path string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestCounts[path]
}

// LastTeamKey returns the X-Honeycomb-Team header of the most recent request.
func (m *MockAPI) LastTeamKey() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastTeamKey
}
