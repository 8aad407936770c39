package conn

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type writeDeadliner interface {
	SetWriteDeadline(t time.Time) error
}

// Stream serializes frames onto a byte stream. A frame is always written
// whole before the next one starts.
type Stream struct {
	mu      sync.Mutex
	w       io.Writer
	timeout time.Duration
	onClose func() error
	closed  bool
	logger  zerolog.Logger
}

// NewStream wraps w. If w has SetWriteDeadline and opts.WriteTimeout is set,
// each Send is bounded by it. Close closes w when it is an io.Closer.
func NewStream(w io.Writer, opts Options) *Stream {
	s := &Stream{
		w:       w,
		timeout: opts.WriteTimeout,
		logger:  opts.Logger,
	}
	if c, ok := w.(io.Closer); ok {
		s.onClose = c.Close
	}
	return s
}

func (s *Stream) Send(b []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if d, ok := s.w.(writeDeadliner); ok && s.timeout > 0 {
		if err := d.SetWriteDeadline(time.Now().Add(s.timeout)); err != nil {
			return fmt.Errorf("conn: set write deadline: %w", err)
		}
	}
	for len(b) > 0 {
		n, err := s.w.Write(b)
		if err != nil {
			return fmt.Errorf("conn: write: %w", err)
		}
		if n == 0 {
			return ErrShortSend
		}
		b = b[n:]
	}
	return nil
}

func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.logger.Debug().Msg("stream closed")
	if s.onClose != nil {
		return s.onClose()
	}
	return nil
}
