package conn

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/danmuck/guildwire/internal/protocol/frame"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Publisher fans frames out on a Redis channel, one message per frame, for
// gateways that own the client sockets.
type Publisher struct {
	rdb     redis.UniversalClient
	channel string
	timeout time.Duration
	owned   bool

	mu     sync.Mutex
	closed bool
	logger zerolog.Logger
}

// NewPublisher publishes on channel through rdb. Close leaves rdb open.
func NewPublisher(rdb redis.UniversalClient, channel string, opts Options) *Publisher {
	return &Publisher{rdb: rdb, channel: channel, timeout: opts.WriteTimeout, logger: opts.Logger}
}

// DialRedis connects to addr and checks the server answers before returning.
func DialRedis(ctx context.Context, addr, channel string, opts Options) (*Publisher, error) {
	opts = opts.withDefaults()
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  opts.DialTimeout,
		WriteTimeout: opts.WriteTimeout,
	})
	pingCtx, cancel := context.WithTimeout(ctx, opts.DialTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("conn: redis ping %s: %w", addr, err)
	}
	p := NewPublisher(rdb, channel, opts)
	p.owned = true
	opts.Logger.Debug().Str("addr", addr).Str("channel", channel).Msg("redis sink connected")
	return p, nil
}

func (p *Publisher) Send(b []byte) error {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return ErrClosed
	}
	ctx := context.Background()
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	if err := p.rdb.Publish(ctx, p.channel, b).Err(); err != nil {
		return fmt.Errorf("conn: redis publish: %w", err)
	}
	return nil
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	if p.owned {
		return p.rdb.Close()
	}
	return nil
}

// SubscribeFrames decodes every message published on channel until ctx is
// done.
func SubscribeFrames(ctx context.Context, rdb redis.UniversalClient, channel string, handle FrameHandler, logger zerolog.Logger) error {
	sub := rdb.Subscribe(ctx, channel)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("conn: redis subscribe: %w", err)
	}
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			f, err := frame.Decode([]byte(msg.Payload))
			if err == nil {
				err = handle(msg.Channel, f)
			}
			if err != nil {
				logger.Warn().Err(err).Str("channel", msg.Channel).Msg("redis frame rejected")
			}
		}
	}
}
