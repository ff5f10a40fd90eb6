package config

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"strconv"
	"time"
)

var (
	errAddressFormat = errors.New("need address in a form `host:port`")
	errAddressPort   = errors.New("port must be within 1..65535")
)

// NetAddress is a listen address given on the command line. An empty host
// listens on every interface.
type NetAddress struct {
	Host string
	Port int
}

// ParseFlags parses the server command line:
//
//	-a               listen address, host:port
//	-d               postgres DSN
//	-c, -config      JSON config file
//	-token-sign-key  HMAC key for bearer tokens
//	-token-issuer    iss claim of bearer tokens
//	-k               key for the upload integrity header
//	-request-timeout per-request deadline
//	-log-level       zerolog level name
func ParseFlags(args []string) (*StructuredConfig, error) {
	var (
		cfg  StructuredConfig
		addr NetAddress
	)

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.Var(&addr, "a", "Listen address host:port")
	fs.StringVar(&cfg.Storage.DB.DSN, "d", "", "Postgres DSN")
	fs.StringVar(&cfg.JSONFilePath, "c", "", "JSON config file path")
	fs.StringVar(&cfg.JSONFilePath, "config", "", "JSON config file path (alias)")
	fs.StringVar(&cfg.App.TokenSignKey, "token-sign-key", "", "Token signing key")
	fs.StringVar(&cfg.App.TokenIssuer, "token-issuer", "", "Token issuer")
	fs.StringVar(&cfg.App.HashKey, "k", "", "Upload hash key")
	fs.DurationVar(&cfg.Server.RequestTimeout, "request-timeout", time.Duration(0), "Request timeout (e.g. 30s)")
	fs.StringVar(&cfg.App.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("error parsing flags: %w", err)
	}
	cfg.Server.HTTPAddress = addr.String()

	return &cfg, nil
}

func (a *NetAddress) String() string {
	if a.Host == "" && a.Port == 0 {
		return ""
	}
	return net.JoinHostPort(a.Host, strconv.Itoa(a.Port))
}

// Set accepts "host:port", ":port" and "[ipv6]:port".
func (a *NetAddress) Set(s string) error {
	host, portStr, err := net.SplitHostPort(s)
	if err != nil {
		return fmt.Errorf("%w: %w", errAddressFormat, err)
	}

	port, err := strconv.Atoi(portStr)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("%w: %q", errAddressPort, portStr)
	}

	a.Host, a.Port = host, port
	return nil
}
