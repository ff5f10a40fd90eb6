// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

// validateServer checks the settings the remote-store server cannot start
// without.
func (cfg *StructuredConfig) validateServer() error {
	if cfg.Server.HTTPAddress == "" {
		return ErrEmptyServerAddress
	}

	if cfg.Storage.DB.DSN == "" {
		return ErrEmptyDSN
	}

	if cfg.App.TokenSignKey == "" {
		return ErrEmptyTokenSignKey
	}

	if cfg.Server.RequestTimeout <= 0 {
		return ErrInvalidServerConfigs
	}

	return nil
}

func (cfg *ClientConfig) validate() error {
	if cfg.Storage.DB.DSN == "" {
		return ErrEmptyDSN
	}

	if cfg.Adapter.RequestTimeout <= 0 {
		return ErrInvalidAdapterConfigs
	}

	if cfg.Adapter.Token != "" && cfg.Adapter.HTTPAddress == "" {
		return ErrEmptyRemoteAddress
	}

	if cfg.Chat.ProfilesFile == "" || cfg.Chat.TitleTimeout <= 0 {
		return ErrInvalidChatConfigs
	}

	if cfg.Workers.SyncInterval <= 0 || cfg.Workers.ProbeInterval <= 0 {
		return ErrInvalidWorkerConfigs
	}

	return nil
}
