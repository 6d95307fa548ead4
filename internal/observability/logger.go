package observability

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/danmuck/biffrec/internal/logging"
)

// InitLogger configures runtime logging and installs a console logger tagged
// with app as the global logger. Logs go to stderr so stdout stays free for
// command output.
func InitLogger(app string) zerolog.Logger {
	logging.ConfigureRuntime()
	logger := logging.NewLogger(os.Stderr).With().Str("app", app).Logger()
	log.Logger = logger
	return logger
}
