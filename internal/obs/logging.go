package obs

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// NewLogger builds a structured JSON logger at the given level ("debug",
// "info", "warn", "error"; case-insensitive). An unrecognized level falls
// back to info.
func NewLogger(level string) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(level),
	})
	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ValidateLevel reports an error for a level string NewLogger wouldn't
// otherwise reject, so CLI startup can fail fast on a typo rather than
// silently falling back to info.
func ValidateLevel(level string) error {
	switch strings.ToLower(level) {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("obs: unrecognized log level %q", level)
	}
}
