package config

import (
	"fmt"
	"time"
)

// Server defaults.
const (
	DefaultServerAddress = "localhost:8080"
	DefaultTokenIssuer   = "go-chat-keeper"
	DefaultServerTimeout = 30 * time.Second
)

func serverDefaults() StructuredConfig {
	return StructuredConfig{
		App:    App{TokenIssuer: DefaultTokenIssuer},
		Server: Server{HTTPAddress: DefaultServerAddress, RequestTimeout: DefaultServerTimeout},
	}
}

// GetServerConfig loads, merges, and validates the remote-store server
// configuration from all available sources in the following priority order
// (last source wins for non-zero fields):
//  1. Defaults
//  2. Environment variables
//  3. Command-line flags (args, without the program name)
//  4. JSON file (path resolved from sources 2 and 3)
func GetServerConfig(args []string) (*StructuredConfig, error) {
	cfg, err := newConfigBuilder().
		withDefaults(serverDefaults()).
		withEnv().
		withFlags(args).
		withJSON().
		build()
	if err != nil {
		return nil, fmt.Errorf("error get structured config: %w", err)
	}

	return cfg, cfg.validateServer()
}
