// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/MKhiriev/go-chat-keeper/internal/adapter"
	"github.com/MKhiriev/go-chat-keeper/internal/config"
	"github.com/MKhiriev/go-chat-keeper/internal/crypto"
	"github.com/MKhiriev/go-chat-keeper/internal/llm"
	"github.com/MKhiriev/go-chat-keeper/internal/logger"
	"github.com/MKhiriev/go-chat-keeper/internal/service"
	"github.com/MKhiriev/go-chat-keeper/internal/store"
	"github.com/MKhiriev/go-chat-keeper/internal/utils"
	"github.com/MKhiriev/go-chat-keeper/internal/workers"
	"github.com/MKhiriev/go-chat-keeper/models"
)

// Options overrides the collaborators NewApp would otherwise build. Zero
// fields keep the defaults.
type Options struct {
	// Out receives streamed replies. Defaults to os.Stdout.
	Out io.Writer
	// Notices receives connectivity and sync notices. Defaults to os.Stderr.
	Notices io.Writer
	// Streamer replaces the HTTP transport.
	Streamer llm.Streamer
	// Remote replaces the HTTP remote store adapter.
	Remote adapter.RemoteStore
}

// App is the chat client runtime.
type App struct {
	cfg      *config.ClientConfig
	logger   *logger.Logger
	out      io.Writer
	notices  io.Writer
	sealer   crypto.Sealer
	storages *store.ClientStorages
	services *service.ClientServices
	monitor  *workers.ConnectivityMonitor
	workers  *workers.Workers

	profilesOnce sync.Once
	profiles     *config.Profiles
	profilesErr  error
}

// NewApp opens the local storages of the token's user and wires the chat
// session. Without a remote address the client runs local-only: nothing is
// journaled and no workers are started.
func NewApp(ctx context.Context, cfg *config.ClientConfig, log *logger.Logger, opts Options) (*App, error) {
	app := &App{
		cfg:     cfg,
		logger:  log,
		out:     opts.Out,
		notices: opts.Notices,
	}
	if app.out == nil {
		app.out = os.Stdout
	}
	if app.notices == nil {
		app.notices = os.Stderr
	}

	id := &identity{}
	if cfg.Adapter.Token != "" {
		userID, err := utils.ParseUserIDFromJWT(cfg.Adapter.Token)
		if err != nil || userID <= 0 {
			log.Err(err).Str("func", "client.NewApp").Msg("error parsing user id from remote token")
			return nil, ErrInvalidToken
		}
		id.userID = userID
	}

	if cfg.Chat.VaultKey != "" {
		sealer, err := crypto.NewSealer(cfg.Chat.VaultKey)
		if err != nil {
			return nil, fmt.Errorf("create sealer: %w", err)
		}
		app.sealer = sealer
	}

	remote := opts.Remote
	if remote == nil && cfg.RemoteEnabled() {
		var err error
		remote, err = adapter.NewHTTPRemoteStore(cfg.Adapter, cfg.App, log)
		if err != nil {
			return nil, fmt.Errorf("create remote store adapter: %w", err)
		}
	}

	streamer := opts.Streamer
	if streamer == nil {
		streamer = llm.NewTransport(utils.NewStreamingHTTPClient(utils.DefaultHeaderTimeout), log)
	}

	storages, err := store.NewClientStorages(ctx, cfg.Storage, id.userID, log)
	if err != nil {
		return nil, fmt.Errorf("create local storage: %w", err)
	}
	app.storages = storages

	app.services = service.NewClientServices(cfg, streamer, remote, storages, id, service.NotifierFunc(app.notify), log)

	if remote != nil {
		session := app.services.Session
		app.monitor = workers.NewConnectivityMonitor(remote, session, cfg.Workers.ProbeInterval, log)
		id.setOnlineSource(app.monitor.Online)
		app.workers = workers.NewWorkers(
			app.monitor,
			workers.NewSyncJob(session, session.Online, cfg.Workers.SyncInterval, log),
		)
	} else {
		app.workers = workers.NewWorkers()
	}

	return app, nil
}

// Session returns the chat session.
func (a *App) Session() *service.ChatSession {
	return a.services.Session
}

// Connect probes the remote store once. A reachable store brings the
// session online, which runs a reconcile pass before Connect returns.
func (a *App) Connect(ctx context.Context) bool {
	if a.monitor == nil {
		return false
	}
	return a.monitor.Probe(ctx)
}

// Run starts the connectivity monitor and the periodic sync job and blocks
// until ctx is done.
func (a *App) Run(ctx context.Context) error {
	a.workers.Start(ctx)
	<-ctx.Done()
	return nil
}

// Close stops the workers and the local storages.
func (a *App) Close() error {
	a.workers.Stop()
	return a.storages.Close()
}

// Profiles loads the backend profiles file on first use.
func (a *App) Profiles() (*config.Profiles, error) {
	a.profilesOnce.Do(func() {
		var unsealer config.Unsealer
		if a.sealer != nil {
			unsealer = a.sealer
		}
		a.profiles, a.profilesErr = config.LoadProfiles(a.cfg.Chat.ProfilesFile, unsealer)
	})
	return a.profiles, a.profilesErr
}

// Profile returns the backend profile with the given id. An empty id falls
// back to the configured profile and then to the file's default.
func (a *App) Profile(id string) (models.BackendProfile, error) {
	profiles, err := a.Profiles()
	if err != nil {
		return models.BackendProfile{}, err
	}
	if id == "" {
		id = a.cfg.Chat.Profile
	}
	return profiles.Get(id)
}

// Seal encrypts a credential for the profiles file.
func (a *App) Seal(credential string) (string, error) {
	if a.sealer == nil {
		return "", ErrNoVaultKey
	}
	return a.sealer.Seal(credential)
}

// ResolveConversation accepts a full conversation id or a unique prefix.
func (a *App) ResolveConversation(ref string) (string, error) {
	if ref == "" {
		return "", ErrConversationUnknown
	}
	if _, ok := a.Session().Conversation(ref); ok {
		return ref, nil
	}

	var match string
	for _, c := range a.Session().Conversations() {
		if !strings.HasPrefix(c.ID, ref) {
			continue
		}
		if match != "" {
			return "", fmt.Errorf("%w: %q is ambiguous", ErrConversationUnknown, ref)
		}
		match = c.ID
	}
	if match == "" {
		return "", fmt.Errorf("%w: %s", ErrConversationUnknown, ref)
	}
	return match, nil
}

// StreamHandler prints each streamed delta to the output writer.
func (a *App) StreamHandler() llm.Handler {
	var printed int
	return llm.HandlerFuncs{
		Update: func(content string) {
			if len(content) < printed {
				printed = 0
			}
			fmt.Fprint(a.out, content[printed:])
			printed = len(content)
		},
		Complete: func(content string) {
			if len(content) > printed {
				fmt.Fprint(a.out, content[printed:])
			}
			fmt.Fprintln(a.out)
		},
		Error: func(err error) {
			fmt.Fprintln(a.out)
			var te *llm.TransportError
			if errors.As(err, &te) && te.Unauthorized() {
				fmt.Fprintf(a.notices, "error: %v (check the profile credential)\n", err)
				return
			}
			fmt.Fprintf(a.notices, "error: %v\n", err)
		},
		State: func(s llm.State) {
			a.logger.Debug().Stringer("state", s).Msg("stream state changed")
		},
	}
}

func (a *App) notify(n service.Notice) {
	fmt.Fprintf(a.notices, "[%s] %s\n", n.Kind, n.Text)
}
