// Package server runs the remote store HTTP server, including startup,
// signal handling and graceful shutdown.
package server
