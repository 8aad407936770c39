package conn

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/quic-go/quic-go"
	"github.com/quic-go/quic-go/qlog"
)

func quicConfig() *quic.Config {
	return &quic.Config{
		MaxIdleTimeout:                 10 * time.Second,
		InitialStreamReceiveWindow:     10 << 20,
		InitialConnectionReceiveWindow: 10 << 20,
		InitialPacketSize:              1350,
		Tracer:                         qlog.DefaultConnectionTracer,
	}
}

// DialQUIC opens a QUIC connection to addr and returns a sink over one
// bidirectional stream. Closing the sink closes the connection.
func DialQUIC(ctx context.Context, addr string, tlsConf *tls.Config, opts Options) (*Stream, error) {
	opts = opts.withDefaults()
	if tlsConf == nil {
		return nil, errors.New("conn: quic requires a tls config")
	}
	tlsConf = tlsConf.Clone()
	if len(tlsConf.NextProtos) == 0 {
		tlsConf.NextProtos = []string{opts.NextProto}
	}

	qconf := quicConfig()
	qconf.HandshakeIdleTimeout = opts.DialTimeout
	qc, err := quic.DialAddr(ctx, addr, tlsConf, qconf)
	if err != nil {
		return nil, fmt.Errorf("conn: dial quic %s: %w", addr, err)
	}
	openCtx, cancel := context.WithTimeout(ctx, opts.DialTimeout)
	defer cancel()
	stream, err := qc.OpenStreamSync(openCtx)
	if err != nil {
		_ = qc.CloseWithError(0, "failed to open stream")
		return nil, fmt.Errorf("conn: open quic stream: %w", err)
	}
	opts.Logger.Debug().Str("addr", addr).Msg("quic sink connected")

	s := NewStream(stream, opts)
	s.onClose = func() error {
		serr := stream.Close()
		// the peer closes its side once it has read everything we sent
		_ = stream.SetReadDeadline(time.Now().Add(opts.DialTimeout))
		_, _ = io.Copy(io.Discard, stream)
		cerr := qc.CloseWithError(0, "closed")
		return errors.Join(serr, cerr)
	}
	return s, nil
}
