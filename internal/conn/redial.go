package conn

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/rs/zerolog"
)

// Backoff spaces repeated dial attempts. Sends are never retried.
type Backoff struct {
	Attempts     int
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
	Jitter       bool
}

func DefaultBackoff() Backoff {
	return Backoff{
		Attempts:     1,
		InitialDelay: 250 * time.Millisecond,
		Multiplier:   2.0,
		MaxDelay:     5 * time.Second,
		Jitter:       true,
	}
}

// Delay returns the wait after failed attempt n (1-based). With jitter the
// result lies in [0.5, 1.5) of the exponential delay.
func (b Backoff) Delay(n int, rng *rand.Rand) time.Duration {
	if b.InitialDelay <= 0 {
		return 0
	}
	if n < 1 {
		n = 1
	}
	mult := b.Multiplier
	if mult < 1.0 {
		mult = 1.0
	}
	delay := float64(b.InitialDelay) * math.Pow(mult, float64(n-1))
	if b.MaxDelay > 0 && delay > float64(b.MaxDelay) {
		delay = float64(b.MaxDelay)
	}
	if b.Jitter {
		f := 0.5
		if rng != nil {
			f += rng.Float64()
		}
		delay *= f
	}
	return time.Duration(delay)
}

// Redial calls dial until it succeeds, ctx is done or b.Attempts dials have
// failed. The last dial error is returned.
func Redial[S any](ctx context.Context, b Backoff, logger zerolog.Logger, dial func(context.Context) (S, error)) (S, error) {
	attempts := max(b.Attempts, 1)
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	var zero S
	for n := 1; ; n++ {
		s, err := dial(ctx)
		if err == nil {
			return s, nil
		}
		if n >= attempts {
			return zero, fmt.Errorf("conn: %d dial attempts failed: %w", n, err)
		}
		wait := b.Delay(n, rng)
		logger.Warn().Err(err).Int("attempt", n).Dur("retry_in", wait).Msg("dial failed")
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(wait):
		}
	}
}
