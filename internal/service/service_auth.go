package service

import (
	"context"
	"fmt"
	"time"

	"github.com/MKhiriev/go-chat-keeper/internal/config"
	"github.com/MKhiriev/go-chat-keeper/internal/logger"
	"github.com/MKhiriev/go-chat-keeper/internal/utils"
	"github.com/MKhiriev/go-chat-keeper/models"
)

// authService is the concrete implementation of AuthService.
// The remote store has no user registry: a user is whoever holds a token
// signed with tokenSignKey, and the user id is the token subject.
type authService struct {
	// tokenSignKey is the HMAC secret used to sign and verify JWT tokens.
	tokenSignKey string

	// tokenIssuer is the "iss" claim embedded in every issued JWT.
	// Tokens whose issuer does not match this value are rejected during parsing.
	tokenIssuer string

	logger *logger.Logger
}

// NewAuthService constructs a new AuthService populated with the token
// parameters from cfg.
//
// The returned service is safe for concurrent use; all state is read-only after
// construction.
func NewAuthService(cfg config.App, logger *logger.Logger) AuthService {
	return &authService{
		tokenSignKey: cfg.TokenSignKey,
		tokenIssuer:  cfg.TokenIssuer,
		logger:       logger,
	}
}

// CreateToken issues a signed JWT for userID valid for duration.
//
// Returns ErrInvalidDataProvided for a non-positive user id or duration and
// ErrTokenCreationFailed if signing fails.
func (a *authService) CreateToken(ctx context.Context, userID int64, duration time.Duration) (models.Token, error) {
	log := logger.FromContext(ctx)

	if userID <= 0 || duration <= 0 {
		log.Error().Int64("user_id", userID).Dur("duration", duration).Msg("invalid token parameters provided")
		return models.Token{}, ErrInvalidDataProvided
	}

	token, err := utils.GenerateJWTToken(a.tokenIssuer, userID, duration, a.tokenSignKey)
	if err != nil {
		log.Err(err).Str("func", "*authService.CreateToken").Msg("token signing failed")
		return models.Token{}, fmt.Errorf("%w: %w", ErrTokenCreationFailed, err)
	}

	return token, nil
}

// ParseToken validates and parses a raw JWT string.
//
// It delegates to utils.ValidateAndParseJWTToken, verifying the signature and
// the issuer claim. Any validation failure (expired, wrong issuer, malformed,
// subject that is not a positive integer) is normalised to
// ErrTokenIsExpiredOrInvalid so that callers do not need to inspect low-level
// JWT errors.
func (a *authService) ParseToken(ctx context.Context, tokenString string) (models.Token, error) {
	token, err := utils.ValidateAndParseJWTToken(tokenString, a.tokenSignKey, a.tokenIssuer)
	if err != nil {
		return models.Token{}, ErrTokenIsExpiredOrInvalid
	}
	if token.UserID <= 0 {
		return models.Token{}, ErrTokenIsExpiredOrInvalid
	}

	return token, nil
}
