package conn

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// WebSocket sends each frame as one binary message.
type WebSocket struct {
	mu      sync.Mutex
	ws      *websocket.Conn
	timeout time.Duration
	closed  bool
	logger  zerolog.Logger
}

func DialWebSocket(ctx context.Context, url string, opts Options) (*WebSocket, error) {
	opts = opts.withDefaults()
	d := websocket.Dialer{
		HandshakeTimeout: opts.DialTimeout,
		WriteBufferSize:  4096,
	}
	ws, resp, err := d.DialContext(ctx, url, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("conn: dial websocket %s: %w", url, err)
	}
	opts.Logger.Debug().Str("url", url).Msg("websocket sink connected")
	return &WebSocket{ws: ws, timeout: opts.WriteTimeout, logger: opts.Logger}, nil
}

func (s *WebSocket) Send(b []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.timeout > 0 {
		if err := s.ws.SetWriteDeadline(time.Now().Add(s.timeout)); err != nil {
			return fmt.Errorf("conn: set write deadline: %w", err)
		}
	}
	if err := s.ws.WriteMessage(websocket.BinaryMessage, b); err != nil {
		return fmt.Errorf("conn: websocket write: %w", err)
	}
	return nil
}

func (s *WebSocket) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = s.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	s.logger.Debug().Msg("websocket sink closed")
	return s.ws.Close()
}
