package service

import (
	"fmt"

	"github.com/MKhiriev/go-chat-keeper/internal/config"
	"github.com/MKhiriev/go-chat-keeper/internal/logger"
	"github.com/MKhiriev/go-chat-keeper/internal/store"
	"github.com/MKhiriev/go-chat-keeper/models"
)

// Services groups the server-side services consumed by the HTTP handler.
type Services struct {
	AuthService         AuthService
	ConversationService ConversationService
	AppInfoService      AppInfoService
}

func NewServices(storages *store.Storages, cfg config.App, buildInfo models.AppBuildInfo, logger *logger.Logger) (*Services, error) {
	appInfo, err := NewAppInfoService(buildInfo, logger)
	if err != nil {
		return nil, fmt.Errorf("app info service: %w", err)
	}

	conversations := NewConversationValidationService().
		Wrap(NewConversationService(storages.ConversationRepository, logger))

	return &Services{
		AuthService:         NewAuthService(cfg, logger),
		ConversationService: conversations,
		AppInfoService:      appInfo,
	}, nil
}
