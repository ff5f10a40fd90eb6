package config

import "errors"

// Validation errors returned when required configuration groups are
// incomplete or invalid.
var (
	// ErrEmptyDSN indicates a missing database DSN.
	ErrEmptyDSN = errors.New("database DSN is empty")
	// ErrEmptyRemoteAddress indicates a remote token without a remote address.
	ErrEmptyRemoteAddress = errors.New("remote store address is empty")
	// ErrEmptyServerAddress indicates a missing listen address.
	ErrEmptyServerAddress = errors.New("server address is empty")
	// ErrEmptyTokenSignKey indicates the server has no key to verify tokens.
	ErrEmptyTokenSignKey = errors.New("token sign key is empty")
	// ErrUnknownConflictStrategy indicates a conflict policy name that is not
	// one of local-wins, remote-wins, latest-wins, merge.
	ErrUnknownConflictStrategy = errors.New("unknown conflict strategy")
	// ErrInvalidAdapterConfigs indicates invalid client adapter settings
	// (for example, a zero request timeout).
	ErrInvalidAdapterConfigs = errors.New("invalid adapter configuration")
	// ErrInvalidServerConfigs indicates invalid server settings.
	ErrInvalidServerConfigs = errors.New("invalid server configuration")
	// ErrInvalidChatConfigs indicates a missing profiles file or title timeout.
	ErrInvalidChatConfigs = errors.New("invalid chat configuration")
	// ErrInvalidWorkerConfigs indicates invalid background worker settings
	// (for example, zero sync interval).
	ErrInvalidWorkerConfigs = errors.New("invalid worker configuration")
)

// Backend profile errors returned by [LoadProfiles] and [Profiles.Get].
var (
	ErrNoProfiles       = errors.New("no backend profiles configured")
	ErrInvalidProfile   = errors.New("invalid backend profile")
	ErrDuplicateProfile = errors.New("duplicate backend profile id")
	ErrProfileNotFound  = errors.New("backend profile not found")
	ErrSealedCredential = errors.New("sealed credential needs a vault key")
)
