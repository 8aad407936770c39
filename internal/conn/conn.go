// Package conn holds the sinks guild frames are written to: network streams
// (TCP, QUIC, WebSocket), a Redis fan-out channel, a hex dump and an
// in-memory recorder.
package conn

import (
	"errors"
	"time"

	"github.com/rs/zerolog"
)

var (
	ErrClosed    = errors.New("conn: sink closed")
	ErrShortSend = errors.New("conn: writer accepted no bytes")
)

// DefaultNextProto is the ALPN protocol offered by QUIC sinks and listeners.
const DefaultNextProto = "guildwire"

// Sink receives complete frames.
type Sink interface {
	Send(b []byte) error
	Close() error
}

// Options tune dialed sinks. Zero DialTimeout, BufferBytes and NextProto fall
// back to DefaultOptions; a zero WriteTimeout disables write deadlines.
type Options struct {
	DialTimeout  time.Duration
	WriteTimeout time.Duration
	BufferBytes  int
	NextProto    string
	Logger       zerolog.Logger
}

func DefaultOptions() Options {
	return Options{
		DialTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		BufferBytes:  8 << 20,
		NextProto:    DefaultNextProto,
		Logger:       zerolog.Nop(),
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.DialTimeout <= 0 {
		o.DialTimeout = def.DialTimeout
	}
	if o.WriteTimeout < 0 {
		o.WriteTimeout = 0
	}
	if o.BufferBytes <= 0 {
		o.BufferBytes = def.BufferBytes
	}
	if o.NextProto == "" {
		o.NextProto = def.NextProto
	}
	return o
}
