package backend

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// StreamState is the push-channel connection state.
type StreamState int32

const (
	StateConnecting StreamState = iota
	StateOpen
	StateClosed
)

func (s StreamState) String() string {
	switch s {
	case StateConnecting:
		return "CONNECTING"
	case StateOpen:
		return "OPEN"
	default:
		return "CLOSED"
	}
}

// StreamMetrics receives connection lifecycle events.
type StreamMetrics interface {
	WSReconnectsInc()
	WSStateSet(float64)
}

// FrameHandler is called once per received text frame, in arrival order, on
// the stream's read goroutine.
type FrameHandler func(data []byte)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 1024 * 1024
	initialBackoff = time.Second
)

type Stream struct {
	url        string
	ping       time.Duration
	reconnect  bool
	maxBackoff time.Duration
	state      atomic.Int32
	metrics    StreamMetrics
}

// NewStream returns a push-channel client. With reconnect set, dropped
// connections are re-dialled with exponential backoff capped at maxBackoff.
func NewStream(url string, ping time.Duration, reconnect bool, maxBackoff time.Duration) *Stream {
	if ping <= 0 {
		ping = 15 * time.Second
	}
	if maxBackoff < initialBackoff {
		maxBackoff = 30 * time.Second
	}
	s := &Stream{url: url, ping: ping, reconnect: reconnect, maxBackoff: maxBackoff}
	s.state.Store(int32(StateClosed))
	return s
}

// SetMetrics sets the metrics sink for connection events.
func (s *Stream) SetMetrics(m StreamMetrics) { s.metrics = m }

// State returns the current connection state.
func (s *Stream) State() StreamState { return StreamState(s.state.Load()) }

func (s *Stream) setState(st StreamState) {
	s.state.Store(int32(st))
	if s.metrics != nil {
		s.metrics.WSStateSet(float64(st))
	}
	log.Debug().Str("state", st.String()).Str("url", s.url).Msg("push channel state")
}

// Run connects and delivers frames to handle until ctx is done. Without
// reconnect it returns after the first connection ends. Connection errors
// are also offered to errs without blocking; errs may be nil.
func (s *Stream) Run(ctx context.Context, handle FrameHandler, errs chan<- error) error {
	backoff := initialBackoff
	defer s.setState(StateClosed)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		opened, err := s.streamOnce(ctx, handle)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err == nil {
			err = errors.New("connection ended")
		}
		s.setState(StateClosed)

		if errs != nil {
			select {
			case errs <- fmt.Errorf("ws: %w", err):
			default:
			}
		}

		if !s.reconnect {
			log.Warn().Err(err).Msg("push channel closed, reconnect disabled")
			return err
		}

		if opened {
			backoff = initialBackoff
		}
		log.Warn().Err(err).Dur("backoff", backoff).Msg("push channel lost, reconnecting with exponential backoff...")
		if s.metrics != nil {
			s.metrics.WSReconnectsInc()
		}

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}

		backoff *= 2
		if backoff > s.maxBackoff {
			backoff = s.maxBackoff
		}
	}
}

// streamOnce runs a single connection. opened reports whether the dial
// succeeded.
func (s *Stream) streamOnce(ctx context.Context, handle FrameHandler) (opened bool, err error) {
	s.setState(StateConnecting)
	log.Info().Str("url", s.url).Msg("Establishing WebSocket connection")

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return false, fmt.Errorf("dial failed: %w", err)
	}
	defer func() {
		conn.Close()
		log.Debug().Msg("WebSocket connection closed")
	}()

	s.setState(StateOpen)

	pongWait := 2 * s.ping
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	done := make(chan struct{})
	defer close(done)
	go s.keepAlive(ctx, conn, done)

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return true, ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Info().Msg("WebSocket connection closed normally")
				return true, err
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Msg("WebSocket connection closed unexpectedly")
			}
			return true, fmt.Errorf("read message failed: %w", err)
		}

		conn.SetReadDeadline(time.Now().Add(pongWait))
		handle(msg)
	}
}

// keepAlive pings the server and unblocks the reader when ctx ends.
func (s *Stream) keepAlive(ctx context.Context, conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(s.ping)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			conn.Close()
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(writeWait)); err != nil {
				log.Debug().Err(err).Msg("ping failed")
				conn.Close()
				return
			}
		}
	}
}
