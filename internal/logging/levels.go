package logging

import (
	"context"
	"log/slog"
	"strings"
)

// ForComponent tags logger with the component attribute and applies the
// level configured for that component in levels, if any.
func ForComponent(logger *slog.Logger, component string, levels map[string]string) *slog.Logger {
	logger = NewComponentLogger(logger, component)
	value, ok := levels[strings.ToLower(component)]
	if !ok {
		return logger
	}
	return slog.New(withMinLevel(logger.Handler(), parseLevel(value)))
}

// minLevelHandler drops records below floor. The wrapped handler must accept
// the most verbose level any component needs.
type minLevelHandler struct {
	next  slog.Handler
	floor slog.Level
}

func withMinLevel(next slog.Handler, floor slog.Level) slog.Handler {
	if inner, ok := next.(*minLevelHandler); ok {
		next = inner.next
	}
	return &minLevelHandler{next: next, floor: floor}
}

func (h *minLevelHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.floor && h.next.Enabled(ctx, level)
}

func (h *minLevelHandler) Handle(ctx context.Context, record slog.Record) error {
	if record.Level < h.floor {
		return nil
	}
	return h.next.Handle(ctx, record)
}

func (h *minLevelHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &minLevelHandler{next: h.next.WithAttrs(attrs), floor: h.floor}
}

func (h *minLevelHandler) WithGroup(name string) slog.Handler {
	return &minLevelHandler{next: h.next.WithGroup(name), floor: h.floor}
}

// parseLevel maps a config level name to a slog level. Unknown names are
// treated as info.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}
