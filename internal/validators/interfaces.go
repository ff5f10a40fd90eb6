// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package validators checks conversations and update bodies before they
// reach the remote store repository.
package validators

import "context"

// Validator validates a value. Optional field names restrict the check to a
// subset; an unknown name is an error.
type Validator interface {
	Validate(ctx context.Context, obj any, fields ...string) error
}
