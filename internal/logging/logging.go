// Package logging configures the process-wide slog logger.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strconv"
)

// Setup installs a JSON slog handler writing to w as the default logger and
// returns it.  The level is Info, or Debug when DEVELOPMENT_MODE is true.
func Setup(w io.Writer) *slog.Logger {
	var programLevel = new(slog.LevelVar) // Info by default
	if IsDevelopment() {
		programLevel.Set(slog.LevelDebug)
	}
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: programLevel}))
	slog.SetDefault(logger)
	return logger
}

// IsDevelopment reports whether DEVELOPMENT_MODE parses as true.
func IsDevelopment() bool {
	isDev, err := strconv.ParseBool(os.Getenv("DEVELOPMENT_MODE"))
	return err == nil && isDev
}
