package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/MKhiriev/go-chat-keeper/internal/config"
	"github.com/MKhiriev/go-chat-keeper/internal/handler"
	"github.com/MKhiriev/go-chat-keeper/internal/logger"
	"github.com/MKhiriev/go-chat-keeper/internal/server"
	"github.com/MKhiriev/go-chat-keeper/internal/service"
	"github.com/MKhiriev/go-chat-keeper/internal/store"
	"github.com/MKhiriev/go-chat-keeper/models"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

const defaultTokenTTL = 30 * 24 * time.Hour

func main() {
	args := os.Args[1:]
	if len(args) > 0 && args[0] == "token" {
		issueToken(args[1:])
		return
	}

	buildInfo := models.NewAppBuildInfo(buildVersion, buildDate, buildCommit).WithDefaults()
	printBuildInfo(buildInfo)

	log := logger.NewLogger("go-chat-server")
	cfg, err := config.GetServerConfig(args)
	if err != nil {
		log.Fatal().Err(err).Msg("error getting configs")
	}
	logger.SetLevel(cfg.App.LogLevel)

	log.Debug().Str("address", cfg.Server.HTTPAddress).Dur("request_timeout", cfg.Server.RequestTimeout).Msg("received configs")

	storages, err := store.NewStorages(context.Background(), cfg.Storage, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating storages")
	}
	defer storages.Close()

	services, err := service.NewServices(storages, cfg.App, buildInfo, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating services")
	}

	handlers, err := handler.NewHandlers(services, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating handlers")
	}

	srv, err := server.NewServer(handlers, cfg.Server, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating server")
	}

	srv.RunServer()
}

// issueToken prints a bearer token for a user. Usage:
//
//	go-chat-server token -user 7 [-ttl 720h] [server flags]
func issueToken(args []string) {
	fs := flag.NewFlagSet("token", flag.ExitOnError)
	userID := fs.Int64("user", 0, "User id placed in the token subject")
	ttl := fs.Duration("ttl", defaultTokenTTL, "Token lifetime")
	_ = fs.Parse(args)

	log := logger.NewLogger("go-chat-server")
	logger.SetLevel("warn")

	cfg, err := config.GetServerConfig(fs.Args())
	if err != nil {
		log.Fatal().Err(err).Msg("error getting configs")
	}

	token, err := service.NewAuthService(cfg.App, log).CreateToken(context.Background(), *userID, *ttl)
	if err != nil {
		log.Fatal().Err(err).Int64("user_id", *userID).Msg("error creating token")
	}

	fmt.Fprintf(os.Stderr, "token for user %d expires %s\n", token.UserID, token.Expiry().Format(time.RFC3339))
	fmt.Println(token.SignedString)
}

func printBuildInfo(info models.AppBuildInfo) {
	fmt.Print(info)
}
