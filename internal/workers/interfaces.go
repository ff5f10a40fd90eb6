// Package workers provides abstractions for managing and running
// background workers in the application.
// It defines the Worker interface and a Workers aggregate that allows
// starting and stopping multiple workers in a unified way.
package workers

import (
	"context"

	"github.com/MKhiriev/go-chat-keeper/models"
)

// Worker is the interface that must be implemented by any background worker.
//
// Start launches the worker's loop in its own goroutine and returns
// immediately. The loop exits when ctx is cancelled or Stop is called.
// Stop blocks until the loop has exited and is a no-op for an idle worker.
//
// Example implementation:
//
//	type MyWorker struct{ loop }
//
//	func (w *MyWorker) Start(ctx context.Context) {
//	    w.loop.start(ctx, time.Minute, false, w.tick)
//	}
type Worker interface {
	Start(ctx context.Context)
	Stop()
}

// Reconciler runs one reconciliation pass.
type Reconciler interface {
	Reconcile(ctx context.Context) (models.SyncReport, error)
}

// Pinger probes the remote store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ConnectivityListener receives probe outcomes.
type ConnectivityListener interface {
	SetOnline(ctx context.Context, online bool)
}
