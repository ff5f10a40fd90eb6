// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package crypto seals backend credentials under a user-supplied vault key.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"github.com/MKhiriev/go-chat-keeper/internal/config"
	"golang.org/x/crypto/argon2"
)

const saltSize = 16

// keyChain is the private implementation of [Sealer].
type keyChain struct {
	vaultKey []byte

	// Argon2id tuning parameters. Stored in the struct so tests can use
	// cheaper settings.
	argonTime    uint32
	argonMemory  uint32
	argonThreads uint8
	argonKeyLen  uint32
}

// NewSealer constructs a [Sealer] with the Argon2id parameters recommended
// by OWASP (2024):
//   - time cost:   1 iteration
//   - memory cost: 64 MiB
//   - parallelism: 4 threads
//   - key length:  32 bytes (256 bits)
func NewSealer(vaultKey string) (Sealer, error) {
	if vaultKey == "" {
		return nil, ErrEmptyVaultKey
	}

	return &keyChain{
		vaultKey:     []byte(vaultKey),
		argonTime:    1,
		argonMemory:  64 * 1024, // 64 MiB
		argonThreads: 4,
		argonKeyLen:  32, // 256 bits
	}, nil
}

// Seal implements [Sealer].
func (k *keyChain) Seal(plaintext string) (string, error) {
	salt, err := randomBytes(saltSize)
	if err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	gcm, err := k.cipher(salt)
	if err != nil {
		return "", err
	}

	nonce, err := randomBytes(gcm.NonceSize())
	if err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	// salt || nonce || ciphertext
	blob := make([]byte, 0, len(salt)+len(nonce)+len(plaintext)+gcm.Overhead())
	blob = append(blob, salt...)
	blob = append(blob, nonce...)
	blob = gcm.Seal(blob, nonce, []byte(plaintext), nil)

	return config.SealedPrefix + base64.StdEncoding.EncodeToString(blob), nil
}

// Open implements [Sealer].
func (k *keyChain) Open(sealed string) (string, error) {
	encoded, ok := strings.CutPrefix(strings.TrimSpace(sealed), config.SealedPrefix)
	if !ok {
		return "", ErrNotSealed
	}

	blob, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrMalformedSealed, err)
	}
	if len(blob) < saltSize {
		return "", ErrMalformedSealed
	}

	salt, rest := blob[:saltSize], blob[saltSize:]
	gcm, err := k.cipher(salt)
	if err != nil {
		return "", err
	}

	nonceSize := gcm.NonceSize()
	if len(rest) < nonceSize {
		return "", ErrMalformedSealed
	}

	// Split the blob into nonce and actual ciphertext.
	nonce, ciphertext := rest[:nonceSize], rest[nonceSize:]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrWrongVaultKey
	}

	return string(plaintext), nil
}

// cipher derives the KEK for salt and wraps it in AES-256-GCM.
func (k *keyChain) cipher(salt []byte) (cipher.AEAD, error) {
	kek := argon2.IDKey(k.vaultKey, salt, k.argonTime, k.argonMemory, k.argonThreads, k.argonKeyLen)

	block, err := aes.NewCipher(kek)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}

	return gcm, nil
}

func randomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return nil, err
	}
	return b, nil
}
