package logging

import (
	"io"
	"log/slog"
	"os"
)

// Setup initializes the global slog logger with JSON output to stdout. Extra
// handlers, such as a DBHandler, receive the same records.
func Setup(level slog.Level, extra ...slog.Handler) {
	slog.SetDefault(slog.New(newHandler(os.Stdout, level, extra...)))
}

func newHandler(w io.Writer, level slog.Level, extra ...slog.Handler) slog.Handler {
	handler := slog.Handler(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
	if len(extra) > 0 {
		handler = NewMultiHandler(append([]slog.Handler{handler}, extra...)...)
	}
	return handler
}

// LevelFor maps APP_ENV to a log level.
func LevelFor(appEnv string) slog.Level {
	if appEnv == "development" || appEnv == "test" {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}
