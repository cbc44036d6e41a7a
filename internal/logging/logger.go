package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"tagscout/internal/config"
)

// LogFileName is the JSON log written under paths.log_dir.
const LogFileName = "tagscout.log"

// Options describes logger construction parameters. JSONPath, when set,
// receives a JSON copy of every record regardless of Format. ComponentLevels
// lowers or raises the level per component attribute.
type Options struct {
	Level           string
	Format          string
	OutputPaths     []string
	JSONPath        string
	Development     bool
	ComponentLevels map[string]string
}

// New constructs a slog logger using the provided options.
func New(opts Options) (*slog.Logger, error) {
	level := parseLevel(opts.Level)

	// The handlers accept the most verbose level any component asks for;
	// everything else is filtered back to level below.
	floor := level
	for _, value := range opts.ComponentLevels {
		floor = min(floor, parseLevel(value))
	}
	handlerLevel := new(slog.LevelVar)
	handlerLevel.Set(floor)
	addSource := opts.Development || level <= slog.LevelDebug

	paths := opts.OutputPaths
	if len(paths) == 0 {
		paths = []string{"stdout"}
	}
	out, err := openOutputs(paths)
	if err != nil {
		return nil, err
	}

	var handler slog.Handler
	switch format := strings.ToLower(strings.TrimSpace(opts.Format)); format {
	case "", "console":
		handler = newConsoleHandler(out, handlerLevel, addSource)
	case "json":
		handler = newJSONHandler(out, handlerLevel, addSource)
	default:
		return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}

	if path := strings.TrimSpace(opts.JSONPath); path != "" {
		file, err := openOutputs([]string{path})
		if err != nil {
			return nil, err
		}
		handler = TeeHandler(handler, newJSONHandler(file, handlerLevel, addSource))
	}

	if floor < level {
		handler = withMinLevel(handler, level)
	}
	return slog.New(handler), nil
}

// NewFromConfig builds the console logger described by cfg.Logging and tees
// JSON into paths.log_dir/tagscout.log.
func NewFromConfig(cfg *config.Config) (*slog.Logger, error) {
	if cfg == nil {
		return New(Options{Level: "info", Format: "console"})
	}

	opts := Options{
		Level:           cfg.Logging.Level,
		Format:          cfg.Logging.Format,
		ComponentLevels: cfg.Logging.ComponentLevels,
	}
	if dir := strings.TrimSpace(cfg.Paths.LogDir); dir != "" {
		opts.JSONPath = filepath.Join(dir, LogFileName)
	}
	return New(opts)
}

// openOutputs resolves "stdout", "stderr" and file paths into one writer.
// Files are created with their parent directories and opened for append.
func openOutputs(paths []string) (io.Writer, error) {
	var writers []io.Writer
	var seen []string
	for _, path := range paths {
		path = strings.TrimSpace(path)
		if path == "" || slices.Contains(seen, path) {
			continue
		}
		seen = append(seen, path)

		switch path {
		case "stdout":
			writers = append(writers, os.Stdout)
		case "stderr":
			writers = append(writers, os.Stderr)
		default:
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return nil, fmt.Errorf("ensure log directory for %s: %w", path, err)
			}
			file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o664)
			if err != nil {
				return nil, fmt.Errorf("open log file %s: %w", path, err)
			}
			writers = append(writers, file)
		}
	}

	switch len(writers) {
	case 0:
		return os.Stdout, nil
	case 1:
		return writers[0], nil
	}
	return io.MultiWriter(writers...), nil
}

// newJSONHandler emits ts/level/msg records with UTC RFC 3339 timestamps,
// lower-case levels and file:line sources.
func newJSONHandler(w io.Writer, level slog.Leveler, addSource bool) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       level,
		AddSource:   addSource,
		ReplaceAttr: renameJSONAttr,
	})
}

func renameJSONAttr(groups []string, attr slog.Attr) slog.Attr {
	if len(groups) > 0 {
		return attr
	}
	switch attr.Key {
	case slog.TimeKey:
		attr.Key = "ts"
		if attr.Value.Kind() == slog.KindTime {
			attr.Value = slog.StringValue(attr.Value.Time().UTC().Format(time.RFC3339))
		}
	case slog.LevelKey:
		attr.Value = slog.StringValue(strings.ToLower(attr.Value.String()))
	case slog.SourceKey:
		if src, ok := attr.Value.Any().(*slog.Source); ok && src != nil {
			attr.Value = slog.StringValue(fmt.Sprintf("%s:%d", filepath.Base(src.File), src.Line))
		}
	}
	return attr
}
