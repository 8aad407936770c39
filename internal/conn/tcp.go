package conn

import (
	"context"
	"fmt"
	"net"
)

// DialTCP connects to addr and tunes the socket for small, latency
// sensitive writes.
func DialTCP(ctx context.Context, addr string, opts Options) (*Stream, error) {
	opts = opts.withDefaults()
	d := net.Dialer{Timeout: opts.DialTimeout}
	c, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("conn: dial tcp %s: %w", addr, err)
	}
	if tcp, ok := c.(*net.TCPConn); ok {
		_ = tcp.SetNoDelay(true)
		_ = tcp.SetReadBuffer(opts.BufferBytes)
		_ = tcp.SetWriteBuffer(opts.BufferBytes)
	}
	opts.Logger.Debug().Str("addr", addr).Msg("tcp sink connected")
	return NewStream(c, opts), nil
}
