package testlog

import (
	"testing"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/biffrec/internal/logging"
)

func Start(t *testing.T) {
	t.Helper()
	logging.ConfigureTests()
	log.Info().Str("test", t.Name()).Msg("test start")
}

// Logf records a test step.
func Logf(format string, args ...any) {
	log.Info().Msgf(format, args...)
}
