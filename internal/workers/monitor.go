package workers

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/MKhiriev/go-chat-keeper/internal/logger"
)

const (
	DefaultProbeInterval = 30 * time.Second
	defaultProbeTimeout  = 5 * time.Second
)

// ConnectivityMonitor pings the remote store on an interval and reports
// every outcome to its listener. The first probe runs on Start.
type ConnectivityMonitor struct {
	pinger   Pinger
	listener ConnectivityListener
	interval time.Duration
	timeout  time.Duration
	logger   *logger.Logger

	online atomic.Bool
	loop   loop
}

func NewConnectivityMonitor(pinger Pinger, listener ConnectivityListener, interval time.Duration, log *logger.Logger) *ConnectivityMonitor {
	if interval <= 0 {
		interval = DefaultProbeInterval
	}
	if log == nil {
		log = logger.Nop()
	}

	timeout := defaultProbeTimeout
	if interval < timeout {
		timeout = interval
	}

	return &ConnectivityMonitor{
		pinger:   pinger,
		listener: listener,
		interval: interval,
		timeout:  timeout,
		logger:   log,
	}
}

// Online reports the outcome of the last probe.
func (m *ConnectivityMonitor) Online() bool {
	return m.online.Load()
}

func (m *ConnectivityMonitor) Start(ctx context.Context) {
	m.loop.start(ctx, m.interval, true, m.probe)
}

func (m *ConnectivityMonitor) Stop() {
	m.loop.stop()
}

// Probe runs a single ping and reports it.
func (m *ConnectivityMonitor) Probe(ctx context.Context) bool {
	m.probe(ctx)
	return m.Online()
}

func (m *ConnectivityMonitor) probe(ctx context.Context) {
	pingCtx, cancel := context.WithTimeout(ctx, m.timeout)
	err := m.pinger.Ping(pingCtx)
	cancel()

	if ctx.Err() != nil {
		return
	}

	online := err == nil
	if prev := m.online.Swap(online); prev != online {
		if online {
			m.logger.Info().Msg("remote store is reachable")
		} else {
			m.logger.Warn().Err(err).Msg("remote store is unreachable")
		}
	}

	if m.listener != nil {
		m.listener.SetOnline(ctx, online)
	}
}
