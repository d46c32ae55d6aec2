// Package query runs Honeycomb's asynchronous query-execution flow: create a
// query, create a query result, then poll the result until the server marks
// it complete.
package query

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hny-community/honeycomb-client/pkg/client"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for query-result polling.
var (
	pollIterationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "honeycomb_poll_iterations_total",
		Help: "Total query-result poll iterations",
	})

	pollTimeoutsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "honeycomb_poll_timeouts_total",
		Help: "Total poll loops that exhausted their budget before completion",
	})
)

// Config holds the poll policy. The defaults give a soft overall timeout of
// about five seconds per job (50 polls at 100ms).
type Config struct {
	// PollBudget is the maximum number of status checks per job.
	PollBudget int

	// PollInterval is the wait between status checks.
	PollInterval time.Duration
}

// DefaultConfig returns the default poll policy.
func DefaultConfig() Config {
	return Config{
		PollBudget:   50,
		PollInterval: 100 * time.Millisecond,
	}
}

// Result is the payload extracted from a completed (or abandoned) query
// result. Complete distinguishes "finished with no rows" from "poll budget
// exhausted before the server finished" — both otherwise look like an empty
// payload.
type Result struct {
	Complete bool
	QueryURL string
	Rows     []map[string]any
}

// resultEnvelope mirrors the query-result resource. Sub-fields the server has
// not filled in yet simply decode to their zero values.
type resultEnvelope struct {
	Complete bool `json:"complete"`
	Data     struct {
		Results []struct {
			Data map[string]any `json:"data"`
		} `json:"results"`
	} `json:"data"`
	Links struct {
		QueryURL string `json:"query_url"`
	} `json:"links"`
}

// Poller polls asynchronous query results. Poll loops are independent: any
// number of jobs may be polled concurrently by different callers.
type Poller struct {
	client *client.Client
	config Config
	logger zerolog.Logger
}

// NewPoller creates a poller with the given policy.
func NewPoller(c *client.Client, cfg Config) *Poller {
	if cfg.PollBudget <= 0 {
		cfg.PollBudget = 50
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 100 * time.Millisecond
	}
	return &Poller{
		client: c,
		config: cfg,
		logger: log.With().Str("component", "query-poller").Logger(),
	}
}

// PollUntilComplete fetches the query result for resultID until the server
// reports it complete or the poll budget runs out. Completion is best-effort:
// on budget exhaustion the best-available payload is returned with
// Complete=false rather than an error. A body that does not decode as a
// result envelope counts as "not finished yet"; only transport failures abort
// the loop.
func (p *Poller) PollUntilComplete(ctx context.Context, datasetSlug, resultID string) (*Result, error) {
	path := fmt.Sprintf("query_results/%s/%s", datasetSlug, resultID)
	best := &Result{}

	for i := 0; i < p.config.PollBudget; i++ {
		pollIterationsTotal.Inc()

		resp, err := p.client.GetFresh(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("poll query result %s: %w", resultID, err)
		}

		var envelope resultEnvelope
		if err := json.Unmarshal(resp.Body, &envelope); err != nil {
			p.logger.Debug().
				Err(err).
				Str("result_id", resultID).
				Int("poll", i+1).
				Msg("Query result not decodable yet")
		} else {
			best = extractPayload(&envelope)
			if envelope.Complete {
				p.logger.Debug().
					Str("result_id", resultID).
					Int("polls", i+1).
					Int("rows", len(best.Rows)).
					Msg("Query result complete")
				return best, nil
			}
		}

		// No wait after the final poll; the budget is already spent.
		if i == p.config.PollBudget-1 {
			break
		}

		if err := sleep(ctx, p.config.PollInterval); err != nil {
			return nil, err
		}
	}

	pollTimeoutsTotal.Inc()
	p.logger.Warn().
		Str("result_id", resultID).
		Int("polls", p.config.PollBudget).
		Msg("Poll budget exhausted, returning best-available payload")

	return best, nil
}

// extractPayload pulls the typed payload out of an envelope. Absent or
// partial sub-fields yield an empty payload, not an error.
func extractPayload(envelope *resultEnvelope) *Result {
	result := &Result{
		Complete: envelope.Complete,
		QueryURL: envelope.Links.QueryURL,
	}
	for _, row := range envelope.Data.Results {
		if row.Data != nil {
			result.Rows = append(result.Rows, row.Data)
		}
	}
	return result
}

// sleep waits for d, suspending only the calling goroutine.
func sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("poll interrupted: %w", ctx.Err())
	case <-time.After(d):
		return nil
	}
}
