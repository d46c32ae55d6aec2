package aggregate

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for fan-out operations.
var (
	fetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "honeycomb_aggregate_fetches_total",
		Help: "Total per-item fetches by aggregation mode",
	}, []string{"mode"})

	fetchFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "honeycomb_aggregate_fetch_failures_total",
		Help: "Total per-item fetch failures by aggregation mode",
	}, []string{"mode"})

	fetchesInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "honeycomb_aggregate_fetches_in_flight",
		Help: "Number of per-item fetches currently in flight",
	})
)

// Outcome pairs a work item with its fetch result. Err marks a per-item
// failure; Value is then the zero placeholder for T.
type Outcome[T any] struct {
	Item  string
	Value T
	Err   error
}

// Fetch produces the result for one work item.
type Fetch[T any] func(ctx context.Context, item string) (T, error)

// Ordered fans out one fetch per item and delivers results to consume
// strictly in input order: item i is delivered only after items 0..i-1, even
// when its fetch finishes first. Every fetch starts immediately; callers are
// expected to bound the input size themselves. A failed fetch is logged and
// delivered as the zero value at its position, so every item produces exactly
// one delivery and no failure aborts its siblings.
func Ordered[T any](ctx context.Context, items []string, fetch Fetch[T], consume func(item string, value T)) {
	// One buffered channel per slot keeps completed-but-undeliverable
	// results parked until their turn.
	results := make([]chan Outcome[T], len(items))
	for i, item := range items {
		ch := make(chan Outcome[T], 1)
		results[i] = ch

		go func(item string, ch chan<- Outcome[T]) {
			fetchesInFlight.Inc()
			defer fetchesInFlight.Dec()

			fetchesTotal.WithLabelValues("ordered").Inc()
			value, err := fetch(ctx, item)
			if err != nil {
				fetchFailuresTotal.WithLabelValues("ordered").Inc()
				log.Warn().
					Err(err).
					Str("item", item).
					Msg("Fetch failed, delivering empty result")
				var zero T
				ch <- Outcome[T]{Item: item, Value: zero, Err: err}
				return
			}
			ch <- Outcome[T]{Item: item, Value: value}
		}(item, ch)
	}

	for i := range results {
		out := <-results[i]
		consume(out.Item, out.Value)
	}
}
