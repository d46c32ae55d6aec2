// Package honeycomb exposes the typed Honeycomb API surface: authorizations,
// dataset and column listings, and derived query permalinks, with concurrent
// fan-out helpers for aggregating across datasets and columns.
package honeycomb

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/hny-community/honeycomb-client/pkg/aggregate"
	"github.com/hny-community/honeycomb-client/pkg/client"
	"github.com/hny-community/honeycomb-client/pkg/query"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// weekSeconds is the time window the derived queries cover.
const weekSeconds = 604800

// QueryKind selects which derived query to build for a column.
type QueryKind int

const (
	// QueryExists counts events where the column is present, broken down by it.
	QueryExists QueryKind = iota

	// QueryAvg averages the column's values.
	QueryAvg
)

// Client is the typed Honeycomb API client.
type Client struct {
	api    *client.Client
	poller *query.Poller
	logger zerolog.Logger
}

// New creates a typed client on top of the HTTP client configuration.
func New(cfg client.Config) (*Client, error) {
	api, err := client.New(cfg)
	if err != nil {
		return nil, err
	}
	return &Client{
		api:    api,
		poller: query.NewPoller(api, query.DefaultConfig()),
		logger: log.With().Str("component", "honeycomb-api").Logger(),
	}, nil
}

// SetPollConfig replaces the query-result poll policy (for testing).
func (c *Client) SetPollConfig(cfg query.Config) {
	c.poller = query.NewPoller(c.api, cfg)
}

// ListAuthorizations fetches the access flags for the configured API key.
func (c *Client) ListAuthorizations(ctx context.Context) (*Authorizations, error) {
	auth, err := client.GetJSON[Authorizations](ctx, c.api, "auth")
	if err != nil {
		return nil, fmt.Errorf("list authorizations: %w", err)
	}
	return &auth, nil
}

// ListAllDatasets fetches every dataset in the environment.
func (c *Client) ListAllDatasets(ctx context.Context) ([]Dataset, error) {
	datasets, err := client.GetJSON[[]Dataset](ctx, c.api, "datasets")
	if err != nil {
		return nil, fmt.Errorf("list datasets: %w", err)
	}
	return datasets, nil
}

// ListAllColumns fetches every column of a dataset.
func (c *Client) ListAllColumns(ctx context.Context, datasetSlug string) ([]Column, error) {
	columns, err := client.GetJSON[[]Column](ctx, c.api, "columns/"+datasetSlug)
	if err != nil {
		return nil, fmt.Errorf("list columns for %s: %w", datasetSlug, err)
	}
	return columns, nil
}

// DatasetSlugs returns the slugs of datasets written to within the last
// lastWrittenDays days, sorted ascending. A non-empty include set restricts
// the result to those slugs.
func (c *Client) DatasetSlugs(ctx context.Context, lastWrittenDays int, include map[string]bool) ([]string, error) {
	datasets, err := c.ListAllDatasets(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	slugs := make([]string, 0, len(datasets))
	for _, d := range datasets {
		lastWritten := now
		if d.LastWrittenAt != nil {
			lastWritten = *d.LastWrittenAt
		}
		if int(now.Sub(lastWritten).Hours()/24) >= lastWrittenDays {
			continue
		}
		if len(include) > 0 && !include[d.Slug] {
			continue
		}
		slugs = append(slugs, d.Slug)
	}
	sort.Strings(slugs)

	return slugs, nil
}

// CreateQuery registers a query definition for a dataset.
func (c *Client) CreateQuery(ctx context.Context, datasetSlug string, spec QuerySpec) (*Query, error) {
	q, err := client.PostJSON[Query](ctx, c.api, "queries/"+datasetSlug, spec)
	if err != nil {
		return nil, fmt.Errorf("create query for %s: %w", datasetSlug, err)
	}
	return &q, nil
}

// queryURL runs the full derived-query flow: create the query, trigger its
// asynchronous execution, poll until the result is ready, and return the
// shareable permalink. An empty permalink means the poll budget ran out
// before the server finished.
func (c *Client) queryURL(ctx context.Context, datasetSlug string, spec QuerySpec) (string, error) {
	q, err := c.CreateQuery(ctx, datasetSlug, spec)
	if err != nil {
		return "", err
	}

	ref, err := client.PostJSON[QueryResultRef](ctx, c.api, "query_results/"+datasetSlug, map[string]any{
		"query_id":       q.ID,
		"disable_series": false,
		"limit":          10000,
	})
	if err != nil {
		return "", fmt.Errorf("create query result for %s: %w", datasetSlug, err)
	}

	result, err := c.poller.PollUntilComplete(ctx, datasetSlug, ref.ID)
	if err != nil {
		return "", err
	}
	if !result.Complete {
		c.logger.Warn().
			Str("dataset", datasetSlug).
			Str("result_id", ref.ID).
			Msg("Query result did not complete in time")
	}

	return result.QueryURL, nil
}

// ExistsQueryURL derives a permalink counting events of the last week where
// the column exists, broken down by it.
func (c *Client) ExistsQueryURL(ctx context.Context, datasetSlug, columnID string) (string, error) {
	return c.queryURL(ctx, datasetSlug, QuerySpec{
		Breakdowns:   []string{columnID},
		Calculations: []Calculation{{Op: "COUNT"}},
		Filters:      []Filter{{Column: columnID, Op: "exists"}},
		TimeRange:    weekSeconds,
	})
}

// AvgQueryURL derives a permalink averaging the column over the last week.
func (c *Client) AvgQueryURL(ctx context.Context, datasetSlug, columnID string) (string, error) {
	return c.queryURL(ctx, datasetSlug, QuerySpec{
		Calculations: []Calculation{{Op: "AVG", Column: columnID}},
		TimeRange:    weekSeconds,
	})
}

// ProcessDatasetColumns fetches the columns of every dataset in parallel and
// calls consume once per dataset, in the order the datasets were given. Only
// columns written to within the last lastWrittenDays days are kept. A dataset
// whose column fetch fails is delivered with an empty column list.
func (c *Client) ProcessDatasetColumns(ctx context.Context, lastWrittenDays int, datasets []string, consume func(dataset string, columns []Column)) {
	now := time.Now()

	aggregate.Ordered(ctx, datasets, func(ctx context.Context, dataset string) ([]Column, error) {
		columns, err := c.ListAllColumns(ctx, dataset)
		if err != nil {
			return nil, err
		}

		recent := make([]Column, 0, len(columns))
		for _, col := range columns {
			if int(now.Sub(col.LastWritten).Hours()/24) < lastWrittenDays {
				recent = append(recent, col)
			}
		}
		return recent, nil
	}, consume)
}

// ColumnQueryURL pairs a column ID with its derived query permalink.
type ColumnQueryURL struct {
	ColumnID string
	URL      string
}

// ColumnQueryURLs derives one query permalink per column with a bounded
// fan-out. Each derivation internally retries on rate limiting, so the
// concurrency cap (DefaultConcurrency when limit <= 0) keeps a large column
// set from multiplying rate-limit pressure. Results arrive in completion
// order; a failed derivation yields an empty URL for that column. sink is
// notified after each completion.
func (c *Client) ColumnQueryURLs(ctx context.Context, datasetSlug string, columns []Column, kind QueryKind, limit int, sink aggregate.ProgressSink) []ColumnQueryURL {
	ids := make([]string, len(columns))
	for i, col := range columns {
		ids[i] = col.ID
	}

	derive := c.ExistsQueryURL
	if kind == QueryAvg {
		derive = c.AvgQueryURL
	}

	outcomes := aggregate.Bounded(ctx, ids, limit, func(ctx context.Context, columnID string) (string, error) {
		return derive(ctx, datasetSlug, columnID)
	}, sink)

	urls := make([]ColumnQueryURL, len(outcomes))
	for i, out := range outcomes {
		urls[i] = ColumnQueryURL{ColumnID: out.Item, URL: out.Value}
	}
	return urls
}
