// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/MKhiriev/go-chat-keeper/models"
	"gopkg.in/yaml.v3"
)

// SealedPrefix marks a credential stored encrypted under the vault key.
const SealedPrefix = "sealed:"

// Unsealer decrypts credentials stored as "sealed:" blobs.
type Unsealer interface {
	Open(sealed string) (string, error)
}

// Profiles is the parsed backend profiles file.
type Profiles struct {
	// Default is the id used when no profile is requested explicitly.
	Default string                  `yaml:"default,omitempty"`
	List    []models.BackendProfile `yaml:"profiles"`
}

// LoadProfiles reads the YAML profiles file at path and resolves every
// credential. "${NAME}" references are expanded from the environment and
// "sealed:" blobs are opened with unsealer, which may be nil when no vault
// key is configured.
func LoadProfiles(path string, unsealer Unsealer) (*Profiles, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading profiles file: %w", err)
	}

	return ParseProfiles(raw, unsealer)
}

// ParseProfiles is [LoadProfiles] over an in-memory document.
func ParseProfiles(raw []byte, unsealer Unsealer) (*Profiles, error) {
	var p Profiles
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("error decoding profiles: %w", err)
	}

	if len(p.List) == 0 {
		return nil, ErrNoProfiles
	}

	seen := make(map[string]struct{}, len(p.List))
	for i := range p.List {
		profile := &p.List[i]
		if profile.ID == "" || profile.Endpoint == "" {
			return nil, fmt.Errorf("%w: profile #%d needs an id and an endpoint", ErrInvalidProfile, i+1)
		}
		if _, dup := seen[profile.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateProfile, profile.ID)
		}
		seen[profile.ID] = struct{}{}

		if profile.Family == "" {
			profile.Family = models.FamilyCustom
		}

		credential, err := resolveCredential(profile.Credential, unsealer)
		if err != nil {
			return nil, fmt.Errorf("profile %s: %w", profile.ID, err)
		}
		profile.Credential = credential
	}

	if p.Default != "" {
		if _, ok := seen[p.Default]; !ok {
			return nil, fmt.Errorf("%w: default %s", ErrProfileNotFound, p.Default)
		}
	}

	return &p, nil
}

func resolveCredential(raw string, unsealer Unsealer) (string, error) {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, SealedPrefix) {
		return os.ExpandEnv(raw), nil
	}

	if unsealer == nil {
		return "", ErrSealedCredential
	}

	plain, err := unsealer.Open(raw)
	if err != nil {
		return "", fmt.Errorf("error opening sealed credential: %w", err)
	}
	return plain, nil
}

// Get returns the profile with the given id. An empty id selects the
// file's default, or the first profile when no default is set.
func (p *Profiles) Get(id string) (models.BackendProfile, error) {
	if id == "" {
		id = p.Default
	}
	if id == "" && len(p.List) > 0 {
		return p.List[0], nil
	}

	for _, profile := range p.List {
		if profile.ID == id {
			return profile, nil
		}
	}

	return models.BackendProfile{}, fmt.Errorf("%w: %s", ErrProfileNotFound, id)
}
