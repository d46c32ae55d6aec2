package client

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"
)

// fakeTransport returns canned responses in order, repeating the last one.
type fakeTransport struct {
	mu        sync.Mutex
	responses []*Response
	err       error
	calls     int
}

func (t *fakeTransport) Do(ctx context.Context, method, path string, body []byte) (*Response, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls++
	if t.err != nil {
		return nil, t.err
	}
	idx := t.calls - 1
	if idx >= len(t.responses) {
		idx = len(t.responses) - 1
	}
	return t.responses[idx], nil
}

func (t *fakeTransport) callCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls
}

func rateLimitedResponse() *Response {
	return &Response{
		StatusCode: http.StatusTooManyRequests,
		Header:     http.Header{},
		Body:       []byte(`{"error": "rate limit exceeded"}`),
	}
}

func okResponse(body string) *Response {
	return &Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{},
		Body:       []byte(body),
	}
}

// fastRetryClient builds a client with a small retry budget and a backoff
// short enough for tests.
func fastRetryClient(t *testing.T, transport Transport, budget int) *Client {
	t.Helper()

	c, err := New(Config{
		Transport:    transport,
		RetryBudget:  budget,
		RetryBackoff: time.Millisecond,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return c
}

func TestPostWithRetry_SucceedsBeforeBudget(t *testing.T) {
	// 3 rate-limited responses, then success: 3 < budget of 5.
	transport := &fakeTransport{
		responses: []*Response{
			rateLimitedResponse(),
			rateLimitedResponse(),
			rateLimitedResponse(),
			okResponse(`{"id": "q1"}`),
		},
	}
	c := fastRetryClient(t, transport, 5)

	type query struct {
		ID string `json:"id"`
	}
	q, err := PostJSON[query](context.Background(), c, "queries/test", map[string]any{})
	if err != nil {
		t.Fatalf("Expected success after retries, got %v", err)
	}
	if q.ID != "q1" {
		t.Errorf("ID = %q, want q1", q.ID)
	}
	if transport.callCount() != 4 {
		t.Errorf("Expected 4 attempts (3 rate-limited + 1 success), got %d", transport.callCount())
	}
}

func TestPostWithRetry_BudgetExhausted(t *testing.T) {
	transport := &fakeTransport{
		responses: []*Response{rateLimitedResponse()},
	}
	c := fastRetryClient(t, transport, 5)

	_, err := c.Post(context.Background(), "queries/test", map[string]any{})
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if !errors.Is(err, ErrTooManyRetries) {
		t.Errorf("Expected ErrTooManyRetries, got %v", err)
	}
	if transport.callCount() != 5 {
		t.Errorf("Expected exactly 5 attempts (full budget), got %d", transport.callCount())
	}
}

func TestPostWithRetry_SuccessOnLastAttempt(t *testing.T) {
	// N == budget-1 rate-limited responses: the final attempt succeeds.
	transport := &fakeTransport{
		responses: []*Response{
			rateLimitedResponse(),
			rateLimitedResponse(),
			okResponse(`{}`),
		},
	}
	c := fastRetryClient(t, transport, 3)

	resp, err := c.Post(context.Background(), "queries/test", map[string]any{})
	if err != nil {
		t.Fatalf("Expected success on last attempt, got %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want 200", resp.StatusCode)
	}
	if transport.callCount() != 3 {
		t.Errorf("Expected 3 attempts, got %d", transport.callCount())
	}
}

func TestPostWithRetry_RetriesAreSequential(t *testing.T) {
	// With a measurable backoff, total duration reflects one wait per
	// rate-limited response: retries never overlap.
	transport := &fakeTransport{
		responses: []*Response{
			rateLimitedResponse(),
			rateLimitedResponse(),
			okResponse(`{}`),
		},
	}
	c, err := New(Config{
		Transport:    transport,
		RetryBudget:  5,
		RetryBackoff: 20 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	start := time.Now()
	if _, err := c.Post(context.Background(), "queries/test", nil); err != nil {
		t.Fatalf("Post failed: %v", err)
	}
	elapsed := time.Since(start)

	// Two rate-limited responses mean two backoff waits.
	if elapsed < 40*time.Millisecond {
		t.Errorf("Expected at least 2 sequential backoffs (40ms), took %v", elapsed)
	}
}

func TestPostWithRetry_TransportErrorNotRetried(t *testing.T) {
	transportErr := errors.New("connection refused")
	transport := &fakeTransport{err: transportErr}
	c := fastRetryClient(t, transport, 5)

	_, err := c.Post(context.Background(), "queries/test", nil)
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if !errors.Is(err, transportErr) {
		t.Errorf("Expected transport error, got %v", err)
	}
	if transport.callCount() != 1 {
		t.Errorf("Expected 1 attempt (no retry on transport error), got %d", transport.callCount())
	}
}

func TestPostWithRetry_DecodeErrorNotRetried(t *testing.T) {
	transport := &fakeTransport{
		responses: []*Response{okResponse(`not json at all`)},
	}
	c := fastRetryClient(t, transport, 5)

	type query struct {
		ID string `json:"id"`
	}
	_, err := PostJSON[query](context.Background(), c, "queries/test", nil)
	if err == nil {
		t.Fatal("Expected error, got nil")
	}

	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("Expected DecodeError, got %v", err)
	}
	if decodeErr.Body != "not json at all" {
		t.Errorf("DecodeError.Body = %q, want raw body preserved", decodeErr.Body)
	}
	if decodeErr.StatusCode != http.StatusOK {
		t.Errorf("DecodeError.StatusCode = %d, want 200", decodeErr.StatusCode)
	}
	if transport.callCount() != 1 {
		t.Errorf("Expected 1 attempt (decode failure is terminal), got %d", transport.callCount())
	}
}

func TestPostWithRetry_ContextCancelledDuringBackoff(t *testing.T) {
	transport := &fakeTransport{
		responses: []*Response{rateLimitedResponse()},
	}
	c, err := New(Config{
		Transport:    transport,
		RetryBudget:  12,
		RetryBackoff: 10 * time.Second,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err = c.Post(ctx, "queries/test", nil)
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if !errors.Is(err, ErrContextCancelled) {
		t.Errorf("Expected ErrContextCancelled, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Error("Cancellation did not interrupt the backoff wait")
	}
}
