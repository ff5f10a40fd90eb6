// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package client

import "context"

// Client defines the minimal lifecycle contract for runnable client
// applications.
type Client interface {
	// Run starts the background workers and blocks until ctx is done.
	Run(ctx context.Context) error

	// Close stops the workers and releases local storages.
	Close() error
}
