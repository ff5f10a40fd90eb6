// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package client wires the chat client runtime: local storages, the remote
// store adapter, the streaming transport, the chat session and the
// background connectivity and sync workers.
package client
