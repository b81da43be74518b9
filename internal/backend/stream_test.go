package backend

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"simdash/internal/testserver"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type frameSink struct {
	mu     sync.Mutex
	frames []string
}

func (f *frameSink) handle(data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, string(data))
}

func (f *frameSink) get() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.frames...)
}

type mockStreamMetrics struct {
	mu         sync.Mutex
	reconnects int
	states     []float64
}

func (m *mockStreamMetrics) WSReconnectsInc() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reconnects++
}

func (m *mockStreamMetrics) WSStateSet(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states = append(m.states, v)
}

func (m *mockStreamMetrics) getReconnects() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reconnects
}

func TestStreamState_String(t *testing.T) {
	assert.Equal(t, "CONNECTING", StateConnecting.String())
	assert.Equal(t, "OPEN", StateOpen.String())
	assert.Equal(t, "CLOSED", StateClosed.String())
}

func TestNewStream_Defaults(t *testing.T) {
	s := NewStream("ws://example", 0, true, 0)
	assert.Equal(t, 15*time.Second, s.ping)
	assert.Equal(t, 30*time.Second, s.maxBackoff)
	assert.Equal(t, StateClosed, s.State())
}

func TestStream_DeliversFramesInOrder(t *testing.T) {
	srv := testserver.New()
	defer srv.Close()

	sink := &frameSink{}
	s := NewStream(srv.WSURL(), time.Second, false, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, sink.handle, nil) }()

	require.True(t, srv.WaitForClients(1, 2*time.Second))
	assert.Eventually(t, func() bool { return s.State() == StateOpen }, time.Second, 5*time.Millisecond)

	require.NoError(t, srv.BroadcastRaw([]byte(`{"type":"update","n":1}`)))
	require.NoError(t, srv.BroadcastRaw([]byte(`{"type":"update","n":2}`)))
	require.NoError(t, srv.BroadcastRaw([]byte(`{"type":"finished"}`)))

	assert.Eventually(t, func() bool { return len(sink.get()) == 3 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{`{"type":"update","n":1}`, `{"type":"update","n":2}`, `{"type":"finished"}`}, sink.get())

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not stop after cancel")
	}
	assert.Equal(t, StateClosed, s.State())
}

func TestStream_NoReconnectReturnsOnDrop(t *testing.T) {
	srv := testserver.New()
	defer srv.Close()

	s := NewStream(srv.WSURL(), time.Second, false, time.Second)
	errs := make(chan error, 4)
	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background(), func([]byte) {}, errs) }()

	require.True(t, srv.WaitForClients(1, 2*time.Second))
	srv.DropClients()

	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("stream kept running without reconnect")
	}
	assert.Equal(t, StateClosed, s.State())
	assert.Equal(t, 1, srv.Connects())
	assert.Len(t, errs, 1)
}

func TestStream_ReconnectsAfterDrop(t *testing.T) {
	srv := testserver.New()
	defer srv.Close()

	metrics := &mockStreamMetrics{}
	sink := &frameSink{}
	s := NewStream(srv.WSURL(), time.Second, true, time.Second)
	s.SetMetrics(metrics)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx, sink.handle, nil)

	require.True(t, srv.WaitForClients(1, 2*time.Second))
	srv.DropClients()

	assert.Eventually(t, func() bool { return srv.Connects() >= 2 }, 3*time.Second, 10*time.Millisecond)
	require.True(t, srv.WaitForClients(1, 2*time.Second))
	assert.GreaterOrEqual(t, metrics.getReconnects(), 1)

	require.NoError(t, srv.BroadcastRaw([]byte(`{"type":"finished"}`)))
	assert.Eventually(t, func() bool { return len(sink.get()) == 1 }, 2*time.Second, 5*time.Millisecond)
}

func TestStream_DialFailureRetries(t *testing.T) {
	srv := testserver.New()
	defer srv.Close()
	srv.FailWith("/ws", http.StatusServiceUnavailable)

	s := NewStream(srv.WSURL(), time.Second, true, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx, func([]byte) {}, nil)

	time.Sleep(200 * time.Millisecond)
	assert.NotEqual(t, StateOpen, s.State())

	srv.FailWith("/ws", 0)
	assert.True(t, srv.WaitForClients(1, 3*time.Second), "stream connects once the endpoint recovers")
}
