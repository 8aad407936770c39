package testlog

import (
	"testing"

	"github.com/danmuck/guildwire/internal/logging"
	"github.com/rs/zerolog"
)

func Start(t *testing.T) {
	t.Helper()
	logging.ConfigureTests()
	logger := logging.Logger("test")
	logger.Info().Str("test", t.Name()).Msg("start")
}

// Logger returns a logger that writes through t.Log.
func Logger(t *testing.T) zerolog.Logger {
	t.Helper()
	return zerolog.New(zerolog.NewTestWriter(t)).Level(zerolog.DebugLevel)
}
