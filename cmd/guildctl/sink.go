package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"strings"

	"github.com/danmuck/guildwire/internal/conn"
	"github.com/rs/zerolog"
)

func (c sinkConfig) options(logger zerolog.Logger) conn.Options {
	return conn.Options{
		DialTimeout:  c.DialTimeout,
		WriteTimeout: c.WriteTimeout,
		Logger:       logger,
	}
}

func (c sinkConfig) tlsConfig() *tls.Config {
	return &tls.Config{
		InsecureSkipVerify: c.InsecureSkipVerify,
		ServerName:         c.ServerName,
		NextProtos:         []string{conn.DefaultNextProto},
		MinVersion:         tls.VersionTLS13,
	}
}

// openSink dials the configured transport, retrying per sink.dial_attempts,
// and wraps it with frame metrics.
func openSink(ctx context.Context, cfg appConfig, stdout io.Writer, logger zerolog.Logger) (conn.Sink, error) {
	opts := cfg.Sink.options(logger)
	var dial func(context.Context) (conn.Sink, error)
	switch cfg.Sink.Transport {
	case transportStdout:
		return conn.Metered(conn.NewHexDump(stdout), cfg.Node), nil
	case transportTCP:
		dial = func(ctx context.Context) (conn.Sink, error) {
			return conn.DialTCP(ctx, cfg.Sink.Addr, opts)
		}
	case transportQUIC:
		dial = func(ctx context.Context) (conn.Sink, error) {
			return conn.DialQUIC(ctx, cfg.Sink.Addr, cfg.Sink.tlsConfig(), opts)
		}
	case transportWebSocket:
		url := cfg.Sink.Addr
		if !strings.Contains(url, "://") {
			url = "ws://" + url
		}
		dial = func(ctx context.Context) (conn.Sink, error) {
			return conn.DialWebSocket(ctx, url, opts)
		}
	case transportRedis:
		dial = func(ctx context.Context) (conn.Sink, error) {
			return conn.DialRedis(ctx, cfg.Sink.Addr, cfg.Sink.Channel, opts)
		}
	default:
		return nil, fmt.Errorf("%w: unknown transport %q", errInvalidConfig, cfg.Sink.Transport)
	}

	backoff := conn.DefaultBackoff()
	backoff.Attempts = cfg.Sink.DialAttempts
	sink, err := conn.Redial(ctx, backoff, logger, dial)
	if err != nil {
		return nil, err
	}
	return conn.Metered(sink, cfg.Node), nil
}
