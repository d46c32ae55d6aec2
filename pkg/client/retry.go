package client

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for retry operations.
var (
	apiRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "honeycomb_retries_total",
		Help: "Total rate-limit retry attempts by path",
	}, []string{"path"})

	apiRetryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "honeycomb_retry_exhausted_total",
		Help: "Total requests that exhausted the rate-limit retry budget by path",
	}, []string{"path"})
)

// postWithRetry issues a state-changing request with a bounded retry loop for
// rate-limited responses. A 429 means "retry later": the goroutine waits out
// the fixed backoff, the budget is decremented, and the identical request is
// reissued. Any other status ends the loop; the caller decides how to decode
// it. Retries of one logical request are strictly sequential, and the backoff
// wait suspends only the calling goroutine.
func (c *Client) postWithRetry(ctx context.Context, path string, body []byte) (*Response, error) {
	for attempt := 1; attempt <= c.config.RetryBudget; attempt++ {
		resp, err := c.transport.Do(ctx, http.MethodPost, path, body)
		if err != nil {
			apiRequestsTotal.WithLabelValues(path, "network_error").Inc()
			return nil, err
		}

		if !rateLimited(resp.StatusCode) {
			apiRequestsTotal.WithLabelValues(path, fmt.Sprintf("%d", resp.StatusCode)).Inc()
			if attempt > 1 {
				c.logger.Info().
					Str("path", path).
					Int("attempt", attempt).
					Msg("Request succeeded after rate-limit retry")
			}
			return resp, nil
		}

		apiRequestsTotal.WithLabelValues(path, "429").Inc()

		// Last attempt: no point waiting out a backoff we will not use.
		if attempt >= c.config.RetryBudget {
			break
		}

		apiRetriesTotal.WithLabelValues(path).Inc()
		c.logger.Warn().
			Str("path", path).
			Int("attempt", attempt).
			Dur("backoff", c.config.RetryBackoff).
			Msg("Rate limited, retrying after backoff")

		if err := sleepContext(ctx, c.config.RetryBackoff); err != nil {
			return nil, err
		}
	}

	apiRetryExhaustedTotal.WithLabelValues(path).Inc()
	c.logger.Error().
		Str("path", path).
		Int("attempts", c.config.RetryBudget).
		Msg("Rate-limit retry budget exhausted")

	return nil, fmt.Errorf("%w: %s still rate limited after %d attempts",
		ErrTooManyRetries, path, c.config.RetryBudget)
}

// sleepContext waits for d, suspending only the calling goroutine.
func sleepContext(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrContextCancelled, ctx.Err())
	case <-time.After(d):
		return nil
	}
}
