// Command hc-columns prints an inventory of recently written datasets and
// columns, optionally deriving a shareable query permalink per column.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hny-community/honeycomb-client/pkg/aggregate"
	"github.com/hny-community/honeycomb-client/pkg/cache"
	"github.com/hny-community/honeycomb-client/pkg/honeycomb"
	"github.com/hny-community/honeycomb-client/pkg/logging"
	"github.com/redis/go-redis/v9"
)

func main() {
	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(getEnv("LOG_LEVEL", "info")),
		Pretty: true,
		Output: os.Stderr,
	})

	cfg, err := honeycomb.ConfigFromEnv()
	if err != nil {
		logger.Fatal().Err(err).Msg("Missing credentials")
	}

	// Optional Redis-backed metadata cache.
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		rdb := redis.NewClient(&redis.Options{Addr: redisURL})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			logger.Fatal().Err(err).Str("redis_url", redisURL).Msg("Failed to connect to Redis")
		}
		cfg.Cache = cache.NewManager(rdb, cache.DefaultTTL)
		logger.Info().Str("redis_url", redisURL).Msg("Metadata cache enabled")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	hc, err := honeycomb.Authorize(ctx, cfg, []string{"queries", "columns"})
	if err != nil {
		logger.Fatal().Err(err).Msg("Authorization check failed")
	}
	if hc == nil {
		logger.Fatal().Msg("API key lacks required access")
	}

	days := getEnvInt("LAST_WRITTEN_DAYS", 30)
	include := parseIncludeSet(os.Getenv("DATASETS"))

	slugs, err := hc.DatasetSlugs(ctx, days, include)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to list datasets")
	}
	logger.Info().Int("datasets", len(slugs)).Int("last_written_days", days).Msg("Inventorying datasets")

	deriveURLs := getEnv("QUERY_URLS", "") == "exists"

	hc.ProcessDatasetColumns(ctx, days, slugs, func(dataset string, columns []honeycomb.Column) {
		fmt.Printf("%s: %d columns\n", dataset, len(columns))
		for _, col := range columns {
			fmt.Printf("  %s (%s)\n", col.KeyName, col.Type)
		}

		if !deriveURLs || len(columns) == 0 {
			return
		}
		urls := hc.ColumnQueryURLs(ctx, dataset, columns, honeycomb.QueryExists,
			aggregate.DefaultConcurrency, aggregate.LogSink{Logger: logger})
		for _, u := range urls {
			fmt.Printf("  %s -> %s\n", u.ColumnID, u.URL)
		}
	})
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

// parseIncludeSet turns a comma-separated dataset list into an include set.
// An empty input means "all datasets".
func parseIncludeSet(raw string) map[string]bool {
	if raw == "" {
		return nil
	}
	include := make(map[string]bool)
	for _, slug := range strings.Split(raw, ",") {
		if slug = strings.TrimSpace(slug); slug != "" {
			include[slug] = true
		}
	}
	return include
}
