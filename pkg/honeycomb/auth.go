package honeycomb

import (
	"context"
	"fmt"
	"os"

	"github.com/hny-community/honeycomb-client/pkg/client"
	"github.com/rs/zerolog/log"
)

// EnvAPIKey is the environment variable the CLI and examples read the API key from.
const EnvAPIKey = "HONEYCOMB_API_KEY"

// ConfigFromEnv builds a default client configuration with the API key taken
// from the environment. The key is read once here and injected into the
// config; nothing below this constructor touches process globals, so the core
// stays testable with fake credentials.
func ConfigFromEnv() (client.Config, error) {
	apiKey := os.Getenv(EnvAPIKey)
	if apiKey == "" {
		return client.Config{}, fmt.Errorf("environment variable %s not found", EnvAPIKey)
	}
	return client.DefaultConfig(apiKey), nil
}

// Authorize creates a client and verifies the API key carries every required
// access type. A key that authenticates but lacks access yields (nil, nil)
// with the granted flags logged, so callers can treat "not allowed" separately
// from "broken".
func Authorize(ctx context.Context, cfg client.Config, requiredAccess []string) (*Client, error) {
	c, err := New(cfg)
	if err != nil {
		return nil, err
	}

	auth, err := c.ListAuthorizations(ctx)
	if err != nil {
		return nil, err
	}

	if !auth.HasRequiredAccess(requiredAccess) {
		log.Warn().
			Strs("required_access", requiredAccess).
			Str("team", auth.Team.Name).
			Str("environment", auth.Environment.Name).
			Msgf("Missing required API key access:\n%s", auth)
		return nil, nil
	}

	return c, nil
}
