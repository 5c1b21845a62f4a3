package logger

import (
	"log/slog"
	"os"
)

// Logger is the process-wide logger. Production code overrides this in
// bootstrap; the init below keeps tests from tripping on a nil logger.
var Logger *slog.Logger

func init() {
	if Logger == nil {
		Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{}))
	}
}
