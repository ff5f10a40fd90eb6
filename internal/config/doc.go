// Package config provides configuration loading, merging, and validation
// facilities for the chat client and the remote-store server.
//
// Configuration is assembled from multiple sources in the following priority
// order (later sources override earlier non-zero fields):
//  1. Built-in defaults
//  2. Environment variables
//  3. Command-line flags
//  4. JSON config file
//
// The main entry points are [GetServerConfig] for the server and
// [GetClientConfig] for the client. Backend profiles live in a separate YAML
// file read by [LoadProfiles].
package config
