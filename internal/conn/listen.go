package conn

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"

	"github.com/danmuck/guildwire/internal/protocol/frame"
	"github.com/gorilla/websocket"
	"github.com/quic-go/quic-go"
	"github.com/rs/zerolog"
)

// FrameHandler receives decoded frames on the receiving side of a sink.
// peer identifies the connection the frame arrived on.
type FrameHandler func(peer string, f frame.Frame) error

// ReadFrames decodes frames from r until it ends on a frame boundary.
func ReadFrames(r io.Reader, peer string, limits frame.Limits, handle FrameHandler) error {
	for {
		f, err := frame.ReadFrame(r, limits)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := handle(peer, f); err != nil {
			return err
		}
	}
}

// ServeTCP accepts connections on ln and decodes each one on its own
// goroutine. It returns when ln is closed or ctx is done.
func ServeTCP(ctx context.Context, ln net.Listener, limits frame.Limits, handle FrameHandler, logger zerolog.Logger) error {
	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()
	for {
		c, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("conn: accept tcp: %w", err)
		}
		go func() {
			defer c.Close()
			peer := c.RemoteAddr().String()
			if err := ReadFrames(c, peer, limits, handle); err != nil {
				logger.Warn().Err(err).Str("peer", peer).Msg("tcp peer dropped")
			}
		}()
	}
}

// ListenQUIC listens on addr offering the guildwire ALPN unless tlsConf
// names its own.
func ListenQUIC(addr string, tlsConf *tls.Config) (*quic.Listener, error) {
	if tlsConf == nil {
		return nil, errors.New("conn: quic requires a tls config")
	}
	tlsConf = tlsConf.Clone()
	if len(tlsConf.NextProtos) == 0 {
		tlsConf.NextProtos = []string{DefaultNextProto}
	}
	ln, err := quic.ListenAddr(addr, tlsConf, quicConfig())
	if err != nil {
		return nil, fmt.Errorf("conn: listen quic %s: %w", addr, err)
	}
	return ln, nil
}

// ServeQUIC decodes the first stream of every accepted connection.
func ServeQUIC(ctx context.Context, ln *quic.Listener, limits frame.Limits, handle FrameHandler, logger zerolog.Logger) error {
	for {
		qc, err := ln.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, quic.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("conn: accept quic: %w", err)
		}
		go func() {
			peer := qc.RemoteAddr().String()
			stream, err := qc.AcceptStream(ctx)
			if err != nil {
				logger.Warn().Err(err).Str("peer", peer).Msg("quic stream not opened")
				_ = qc.CloseWithError(0, "no stream")
				return
			}
			if err := ReadFrames(stream, peer, limits, handle); err != nil {
				logger.Warn().Err(err).Str("peer", peer).Msg("quic peer dropped")
			}
			_ = stream.Close()
		}()
	}
}

// WebSocketHandler upgrades requests and decodes every binary message as one
// frame.
func WebSocketHandler(limits frame.Limits, handle FrameHandler, logger zerolog.Logger) http.Handler {
	upgrader := websocket.Upgrader{ReadBufferSize: 4096, WriteBufferSize: 4096}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn().Err(err).Msg("websocket upgrade failed")
			return
		}
		defer ws.Close()
		if limits.MaxFrameBytes > 0 {
			ws.SetReadLimit(int64(limits.MaxFrameBytes))
		}
		peer := ws.RemoteAddr().String()
		for {
			kind, msg, err := ws.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					logger.Warn().Err(err).Str("peer", peer).Msg("websocket peer dropped")
				}
				return
			}
			if kind != websocket.BinaryMessage {
				continue
			}
			f, err := frame.Decode(msg)
			if err == nil {
				err = handle(peer, f)
			}
			if err != nil {
				logger.Warn().Err(err).Str("peer", peer).Msg("websocket frame rejected")
				return
			}
		}
	})
}
