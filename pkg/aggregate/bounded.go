package aggregate

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultConcurrency caps in-flight fetches in Bounded. Each fetch may
// internally retry on rate limiting, so a wide-open fan-out would multiply
// rate-limit pressure; the cap is the backpressure layered on top of
// per-request retry.
const DefaultConcurrency = 3

// Bounded fans out one fetch per item with at most limit fetches in flight;
// as one completes, the next queued item starts. It collects every
// (item, outcome) pair in completion order — callers needing input order use
// Ordered instead — and covers the input set exactly once. A failed fetch
// yields a zero-value outcome with Err set rather than aborting the batch.
// sink is notified after each completion; pass NopSink to disable reporting.
func Bounded[T any](ctx context.Context, items []string, limit int, fetch Fetch[T], sink ProgressSink) []Outcome[T] {
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	if sink == nil {
		sink = NopSink{}
	}
	if len(items) == 0 {
		return nil
	}
	if limit > len(items) {
		limit = len(items)
	}

	start := time.Now()
	total := len(items)

	queue := make(chan string, total)
	results := make(chan Outcome[T], total)

	for _, item := range items {
		queue <- item
	}
	close(queue)

	var wg sync.WaitGroup
	for i := 0; i < limit; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range queue {
				results <- fetchOne(ctx, item, fetch)
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	// The collection loop is the only writer of the result buffer and the
	// completed counter; worker goroutines never touch shared state.
	outcomes := make([]Outcome[T], 0, total)
	for out := range results {
		outcomes = append(outcomes, out)
		sink.Report(len(outcomes), total)
	}

	log.Debug().
		Int("items", total).
		Int("concurrency", limit).
		Dur("duration", time.Since(start)).
		Msg("Bounded fan-out complete")

	return outcomes
}

// fetchOne runs a single fetch, converting failure into a placeholder outcome.
func fetchOne[T any](ctx context.Context, item string, fetch Fetch[T]) Outcome[T] {
	fetchesInFlight.Inc()
	defer fetchesInFlight.Dec()

	fetchesTotal.WithLabelValues("bounded").Inc()
	value, err := fetch(ctx, item)
	if err != nil {
		fetchFailuresTotal.WithLabelValues("bounded").Inc()
		log.Warn().
			Err(err).
			Str("item", item).
			Msg("Fetch failed, recording empty result")
		var zero T
		return Outcome[T]{Item: item, Value: zero, Err: err}
	}
	return Outcome[T]{Item: item, Value: value}
}
