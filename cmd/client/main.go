package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MKhiriev/go-chat-keeper/internal/client"
	"github.com/MKhiriev/go-chat-keeper/internal/config"
	"github.com/MKhiriev/go-chat-keeper/internal/logger"
	"github.com/MKhiriev/go-chat-keeper/models"
	"github.com/spf13/cobra"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

// overrides collects the persistent flags. Zero values leave env and
// defaults untouched.
var overrides config.StructuredConfig

var rootCmd = &cobra.Command{
	Use:   "go-chat-client",
	Short: "Offline-first chat client for LLM backends",
	Long: `go-chat-client talks to OpenAI, Anthropic, Gemini and Ollama style
backends, keeps every conversation in a local replica and syncs it with a
remote store whenever that store is reachable.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&overrides.JSONFilePath, "config", "c", "", "JSON config file path")
	flags.StringVarP(&overrides.Adapter.HTTPAddress, "remote", "r", "", "Remote store base URL; empty means local-only")
	flags.StringVar(&overrides.Adapter.Token, "token", "", "Bearer token for the remote store")
	flags.DurationVar(&overrides.Adapter.RequestTimeout, "request-timeout", 0, "Timeout of a remote store call")
	flags.StringVarP(&overrides.Storage.DB.DSN, "db", "d", "", "Local store: SQLite path, bolt://<path> or :memory:")
	flags.StringVar(&overrides.Chat.ProfilesFile, "profiles", "", "Backend profiles YAML file")
	flags.StringVarP(&overrides.Chat.Profile, "profile", "p", "", "Backend profile id")
	flags.StringVar(&overrides.Chat.VaultKey, "vault-key", "", "Key that opens sealed credentials")
	flags.StringVar(&overrides.Chat.ConflictStrategy, "conflict", "", "Conflict policy: local-wins, remote-wins, latest-wins, merge")
	flags.DurationVar(&overrides.Chat.TitleTimeout, "title-timeout", 0, "Soft timeout of title generation")
	flags.DurationVar(&overrides.Workers.SyncInterval, "sync-interval", 0, "Period of the background sync job")
	flags.DurationVar(&overrides.Workers.ProbeInterval, "probe-interval", 0, "Period of the connectivity probe")
	flags.StringVar(&overrides.App.HashKey, "hash-key", "", "Key that signs message uploads")
	flags.StringVar(&overrides.App.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flags.StringVar(&overrides.App.LogDir, "log-dir", "", "Directory of the client log file")

	rootCmd.AddCommand(
		newCmd, listCmd, showCmd, sendCmd, retryCmd, editCmd, branchCmd,
		renameCmd, deleteCmd, syncCmd, watchCmd, profilesCmd, versionCmd,
	)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		stop()
		os.Exit(1)
	}
}

// runWithApp builds the client runtime for one command, probes the remote
// store once and closes everything afterwards.
func runWithApp(fn func(ctx context.Context, app *client.App, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := config.GetClientConfig(&overrides)
		if err != nil {
			return err
		}

		log := logger.NewClientLogger("go-chat-client", cfg.App.LogDir)
		logger.SetLevel(cfg.App.LogLevel)

		ctx := cmd.Context()
		app, err := client.NewApp(ctx, cfg, log, client.Options{
			Out:     cmd.OutOrStdout(),
			Notices: cmd.ErrOrStderr(),
		})
		if err != nil {
			log.Err(err).Str("func", "main.runWithApp").Msg("error creating client app")
			return err
		}
		defer func() {
			if err := app.Close(); err != nil {
				log.Err(err).Str("func", "main.runWithApp").Msg("error closing client app")
			}
		}()

		connectCtx, cancel := context.WithTimeout(ctx, cfg.Adapter.RequestTimeout+5*time.Second)
		app.Connect(connectCtx)
		cancel()

		return fn(ctx, app, args)
	}
}

func printBuildInfo(cmd *cobra.Command) {
	fmt.Fprint(cmd.OutOrStdout(), models.NewAppBuildInfo(buildVersion, buildDate, buildCommit))
}
