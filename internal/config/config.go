// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"time"
)

// StructuredConfig is the top-level configuration container shared by the
// chat client and the remote-store server. It aggregates all
// sub-configurations and is populated by merging defaults, environment
// variables, command-line flags and an optional JSON file.
//
// Struct tags:
//   - envPrefix: prefix applied to all nested env tag lookups (caarlos0/env).
//   - env: direct environment variable name for scalar fields.
type StructuredConfig struct {
	// App holds token parameters and logging settings.
	App App

	// Storage holds the database DSN. The client reads it as a local KV
	// location, the server as a PostgreSQL connection string.
	Storage Storage

	// Server holds network address and timeout settings for the HTTP server.
	Server Server `envPrefix:"SERVER_"`

	// Adapter holds the remote-store address and bearer token used by the
	// client.
	Adapter Adapter

	// Chat holds client chat settings: backend profiles, the vault key for
	// sealed credentials, the conflict policy and the title timeout.
	Chat Chat

	// Workers holds intervals for the client background jobs.
	Workers Workers

	// JSONFilePath is the optional path to a JSON configuration file.
	// Populated via the CONFIG environment variable or the -c / -config flag.
	JSONFilePath string `env:"CONFIG"`
}

// App holds application-level configuration values.
type App struct {
	// TokenSignKey is the secret key used to verify JWT tokens.
	// Env: TOKEN_SIGN_KEY
	TokenSignKey string `env:"TOKEN_SIGN_KEY"`

	// TokenIssuer is the expected "iss" claim of accepted tokens.
	// Env: TOKEN_ISSUER
	TokenIssuer string `env:"TOKEN_ISSUER"`

	// HashKey signs message uploads with HMAC-SHA256. Empty disables the
	// integrity check.
	// Env: HASH_KEY
	HashKey string `env:"HASH_KEY"`

	// LogLevel is a zerolog level name ("debug", "info", ...).
	// Env: LOG_LEVEL
	LogLevel string `env:"LOG_LEVEL"`

	// LogDir is the directory the client writes its log file to.
	// Env: LOG_DIR
	LogDir string `env:"LOG_DIR"`
}

// Storage groups the configuration for storage backends.
type Storage struct {
	DB DB
}

// DB holds connection settings for the database backend.
type DB struct {
	// DSN is a PostgreSQL connection string on the server. On the client it
	// is a SQLite file path, "bolt://<path>" for a bbolt file, or ":memory:".
	// Env: DATABASE_DSN
	DSN string `env:"DATABASE_DSN"`
}

// Server holds network and timeout settings for the inbound transport layer.
type Server struct {
	// HTTPAddress is the TCP address on which the HTTP server listens,
	// in "host:port" format (e.g. "0.0.0.0:8080").
	// Env: SERVER_ADDRESS
	HTTPAddress string `env:"ADDRESS"`

	// RequestTimeout is the maximum duration allowed for a single inbound
	// request before the server cancels it (e.g. "30s", "1m").
	// Env: SERVER_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`
}

// Adapter holds settings for the outbound remote-store client.
type Adapter struct {
	// HTTPAddress is the base URL of the remote store. Empty means the
	// client runs local-only.
	// Env: REMOTE_ADDRESS
	HTTPAddress string `env:"REMOTE_ADDRESS"`

	// Token is the bearer JWT presented to the remote store. Its subject is
	// the user id.
	// Env: REMOTE_TOKEN
	Token string `env:"REMOTE_TOKEN"`

	// RequestTimeout bounds every remote-store call.
	// Env: REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`
}

// Chat holds settings consumed by the chat session.
type Chat struct {
	// ProfilesFile is the YAML file listing backend profiles.
	// Env: PROFILES_FILE
	ProfilesFile string `env:"PROFILES_FILE"`

	// Profile selects the active backend profile by id. Empty means the
	// file's default.
	// Env: PROFILE
	Profile string `env:"PROFILE"`

	// VaultKey unlocks credentials stored as "sealed:" blobs.
	// Env: VAULT_KEY
	VaultKey string `env:"VAULT_KEY"`

	// ConflictStrategy is one of local-wins, remote-wins, latest-wins, merge.
	// Env: CONFLICT_STRATEGY
	ConflictStrategy string `env:"CONFLICT_STRATEGY"`

	// TitleTimeout is the soft timeout for title generation.
	// Env: TITLE_TIMEOUT
	TitleTimeout time.Duration `env:"TITLE_TIMEOUT"`
}

// Workers holds configuration for client background jobs.
type Workers struct {
	// SyncInterval is the period of the background reconcile job.
	// Env: SYNC_INTERVAL
	SyncInterval time.Duration `env:"SYNC_INTERVAL"`

	// ProbeInterval is the period of the connectivity probe.
	// Env: PROBE_INTERVAL
	ProbeInterval time.Duration `env:"PROBE_INTERVAL"`
}
