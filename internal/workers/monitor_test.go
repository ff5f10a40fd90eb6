package workers

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MKhiriev/go-chat-keeper/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type switchPinger struct {
	down atomic.Bool
}

func (p *switchPinger) Ping(ctx context.Context) error {
	if p.down.Load() {
		return errors.New("connection refused")
	}
	return ctx.Err()
}

type recordingListener struct {
	mu     sync.Mutex
	states []bool
}

func (l *recordingListener) SetOnline(_ context.Context, online bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.states = append(l.states, online)
}

func (l *recordingListener) snapshot() []bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]bool(nil), l.states...)
}

func TestConnectivityMonitor_Probe(t *testing.T) {
	pinger := &switchPinger{}
	listener := &recordingListener{}
	m := NewConnectivityMonitor(pinger, listener, time.Hour, logger.Nop())

	assert.False(t, m.Online(), "offline until the first probe")

	assert.True(t, m.Probe(context.Background()))
	assert.True(t, m.Online())

	pinger.down.Store(true)
	assert.False(t, m.Probe(context.Background()))

	assert.Equal(t, []bool{true, false}, listener.snapshot())
}

func TestConnectivityMonitor_StartProbesImmediately(t *testing.T) {
	defer goleak.VerifyNone(t)

	listener := &recordingListener{}
	m := NewConnectivityMonitor(&switchPinger{}, listener, time.Hour, logger.Nop())

	m.Start(context.Background())
	require.Eventually(t, func() bool { return len(listener.snapshot()) == 1 }, time.Second, time.Millisecond)
	m.Stop()

	assert.True(t, m.Online())
}

func TestConnectivityMonitor_ReportsTransitions(t *testing.T) {
	defer goleak.VerifyNone(t)

	pinger := &switchPinger{}
	pinger.down.Store(true)
	listener := &recordingListener{}
	m := NewConnectivityMonitor(pinger, listener, 5*time.Millisecond, logger.Nop())

	m.Start(context.Background())
	require.Eventually(t, func() bool { return len(listener.snapshot()) >= 1 }, time.Second, time.Millisecond)
	assert.False(t, m.Online())

	pinger.down.Store(false)
	require.Eventually(t, m.Online, time.Second, time.Millisecond)
	m.Stop()

	states := listener.snapshot()
	assert.False(t, states[0])
	assert.True(t, states[len(states)-1])
}

func TestConnectivityMonitor_NilListener(t *testing.T) {
	m := NewConnectivityMonitor(&switchPinger{}, nil, 0, nil)

	assert.Equal(t, DefaultProbeInterval, m.interval)
	assert.True(t, m.Probe(context.Background()))
}
