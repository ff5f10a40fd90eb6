package config

import (
	"fmt"
	"time"

	"github.com/MKhiriev/go-chat-keeper/models"
)

// Client defaults, applied beneath every other source.
const (
	DefaultClientDSN      = "chatkeeper.db"
	DefaultProfilesFile   = "profiles.yaml"
	DefaultRequestTimeout = 30 * time.Second
	DefaultTitleTimeout   = 10 * time.Second
	DefaultSyncInterval   = 5 * time.Minute
	DefaultProbeInterval  = 30 * time.Second
)

// ClientApp holds client-side logging settings and the upload hash key.
type ClientApp struct {
	HashKey  string
	LogLevel string
	LogDir   string
}

// ClientAdapter holds network settings used by the remote-store client.
type ClientAdapter struct {
	// HTTPAddress is the remote store base URL. Empty means local-only.
	HTTPAddress string
	// Token is the bearer JWT sent with every remote call.
	Token string
	// RequestTimeout is the default timeout for outbound remote calls.
	RequestTimeout time.Duration
}

// ClientDB contains local database connection settings for the client.
type ClientDB struct {
	// DSN is a SQLite path, "bolt://<path>" or ":memory:".
	DSN string
}

// ClientStorage groups client storage backend settings.
type ClientStorage struct {
	DB ClientDB
}

// ClientChat holds the chat session settings.
type ClientChat struct {
	ProfilesFile     string
	Profile          string
	VaultKey         string
	ConflictStrategy models.ConflictStrategy
	TitleTimeout     time.Duration
}

// ClientWorkers contains client background worker settings.
type ClientWorkers struct {
	// SyncInterval defines how often the reconcile job runs while online.
	SyncInterval time.Duration
	// ProbeInterval defines how often the remote store is pinged.
	ProbeInterval time.Duration
}

// ClientConfig is the top-level client configuration assembled from
// [StructuredConfig].
type ClientConfig struct {
	App     ClientApp
	Adapter ClientAdapter
	Storage ClientStorage
	Chat    ClientChat
	Workers ClientWorkers
}

// RemoteEnabled reports whether a remote store is configured.
func (c *ClientConfig) RemoteEnabled() bool {
	return c.Adapter.HTTPAddress != ""
}

func clientDefaults() StructuredConfig {
	return StructuredConfig{
		Storage: Storage{DB: DB{DSN: DefaultClientDSN}},
		Adapter: Adapter{RequestTimeout: DefaultRequestTimeout},
		Chat: Chat{
			ProfilesFile:     DefaultProfilesFile,
			ConflictStrategy: string(models.StrategyMerge),
			TitleTimeout:     DefaultTitleTimeout,
		},
		Workers: Workers{
			SyncInterval:  DefaultSyncInterval,
			ProbeInterval: DefaultProbeInterval,
		},
	}
}

// GetClientConfig builds and validates a client-specific config view.
//
// Sources are merged in the order: defaults, environment, overrides (the
// cobra flags of cmd/client), JSON file. overrides may be nil.
func GetClientConfig(overrides *StructuredConfig) (*ClientConfig, error) {
	cfg, err := newConfigBuilder().
		withDefaults(clientDefaults()).
		withEnv().
		withOverrides(overrides).
		withJSON().
		build()
	if err != nil {
		return nil, fmt.Errorf("error get structured config: %w", err)
	}

	return newClientConfig(cfg)
}

func newClientConfig(cfg *StructuredConfig) (*ClientConfig, error) {
	strategy, ok := models.ParseConflictStrategy(cfg.Chat.ConflictStrategy)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownConflictStrategy, cfg.Chat.ConflictStrategy)
	}

	clientCfg := &ClientConfig{
		App: ClientApp{
			HashKey:  cfg.App.HashKey,
			LogLevel: cfg.App.LogLevel,
			LogDir:   cfg.App.LogDir,
		},
		Adapter: ClientAdapter{
			HTTPAddress:    cfg.Adapter.HTTPAddress,
			Token:          cfg.Adapter.Token,
			RequestTimeout: cfg.Adapter.RequestTimeout,
		},
		Storage: ClientStorage{
			DB: ClientDB{DSN: cfg.Storage.DB.DSN},
		},
		Chat: ClientChat{
			ProfilesFile:     cfg.Chat.ProfilesFile,
			Profile:          cfg.Chat.Profile,
			VaultKey:         cfg.Chat.VaultKey,
			ConflictStrategy: strategy,
			TitleTimeout:     cfg.Chat.TitleTimeout,
		},
		Workers: ClientWorkers{
			SyncInterval:  cfg.Workers.SyncInterval,
			ProbeInterval: cfg.Workers.ProbeInterval,
		},
	}

	if err := clientCfg.validate(); err != nil {
		return nil, err
	}
	return clientCfg, nil
}
