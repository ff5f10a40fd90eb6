package crypto

import "errors"

var (
	// ErrEmptyVaultKey is returned by [NewSealer] without a key.
	ErrEmptyVaultKey = errors.New("vault key is empty")

	// ErrNotSealed is returned by Open for a value without the sealed prefix.
	ErrNotSealed = errors.New("value is not sealed")

	// ErrMalformedSealed is returned when the sealed blob cannot be decoded
	// or is too short to hold salt and nonce.
	ErrMalformedSealed = errors.New("sealed value is malformed")

	// ErrWrongVaultKey is returned when authentication of the blob fails,
	// which almost always means the vault key differs from the sealing one.
	ErrWrongVaultKey = errors.New("wrong vault key or corrupted sealed value")
)
