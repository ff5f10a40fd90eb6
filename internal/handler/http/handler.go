package http

import (
	"github.com/MKhiriev/go-chat-keeper/internal/logger"
	"github.com/MKhiriev/go-chat-keeper/internal/service"
	"github.com/MKhiriev/go-chat-keeper/internal/utils"
)

type Handler struct {
	services *service.Services

	// hasher verifies message uploads; nil disables the check.
	hasher *utils.MessagesHasher

	logger *logger.Logger
}

func NewHandler(services *service.Services, hashKey string, logger *logger.Logger) *Handler {
	logger.Info().Bool("integrity_check", hashKey != "").Msg("http handler created")
	return &Handler{
		services: services,
		hasher:   utils.NewMessagesHasher(hashKey),
		logger:   logger,
	}
}
