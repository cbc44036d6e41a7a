package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestTeeHandlerSkipsNil(t *testing.T) {
	if _, ok := TeeHandler().(discardHandler); !ok {
		t.Fatal("expected discard handler for no members")
	}
	var buf bytes.Buffer
	single := slog.NewJSONHandler(&buf, nil)
	if got := TeeHandler(nil, single, nil); got != single {
		t.Fatalf("expected the lone handler back, got %T", got)
	}
}

func TestTeeHandlerRespectsMemberLevels(t *testing.T) {
	var debugBuf, warnBuf bytes.Buffer
	debug := slog.NewJSONHandler(&debugBuf, &slog.HandlerOptions{Level: slog.LevelDebug})
	warn := slog.NewJSONHandler(&warnBuf, &slog.HandlerOptions{Level: slog.LevelWarn})
	logger := slog.New(TeeHandler(debug, warn)).With(String(FieldComponent, "resolution"))

	logger.Debug("round started")
	logger.Warn("provider slow")

	if got := strings.Count(debugBuf.String(), "\n"); got != 2 {
		t.Fatalf("debug member got %d lines: %q", got, debugBuf.String())
	}
	if strings.Contains(warnBuf.String(), "round started") || !strings.Contains(warnBuf.String(), "provider slow") {
		t.Fatalf("warn member output %q", warnBuf.String())
	}
	var record map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(warnBuf.String())), &record); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if record[FieldComponent] != "resolution" {
		t.Fatalf("component attr lost: %v", record)
	}
}

func TestConsoleHandlerFormatsLine(t *testing.T) {
	var buf bytes.Buffer
	level := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(&buf, level, false)).
		With(String(FieldComponent, "gateway"), String("room", "s/c"))

	logger.Info("client joined",
		String("user", "alice smith"),
		slog.Group("conn", Int("id", 3)),
		Error(errors.New("none")),
	)

	line := buf.String()
	for _, want := range []string{
		" INFO gateway: client joined",
		` room=s/c`,
		` user="alice smith"`,
		` conn.id=3`,
		` error=none`,
	} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %q in %q", want, line)
		}
	}
	if strings.Contains(line, "component=") {
		t.Fatalf("component should render as a prefix: %q", line)
	}
}

func TestConsoleHandlerGroupsPrefixKeys(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newConsoleHandler(&buf, slog.LevelInfo, false)).WithGroup("provider")
	logger.Info("query", String("id", "kitsu"), String("q", ""))
	line := buf.String()
	if !strings.Contains(line, " provider.id=kitsu") || !strings.Contains(line, ` provider.q=""`) {
		t.Fatalf("unexpected line %q", line)
	}
}

func TestMinLevelHandlerReplacesExistingFloor(t *testing.T) {
	var buf bytes.Buffer
	base := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	info := withMinLevel(base, slog.LevelInfo)
	debug := withMinLevel(info, slog.LevelDebug)

	if info.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("info floor should reject debug")
	}
	if !debug.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("replaced floor should accept debug")
	}
}

func TestWithDefaultsKeepsCallerValues(t *testing.T) {
	attrs := withDefaults([]Attr{String(FieldImpact, "tag answered as not found")},
		String(FieldEventType, "x"),
		String(FieldImpact, "default"),
	)
	if len(attrs) != 2 {
		t.Fatalf("expected 2 attrs, got %v", attrs)
	}
	if attrs[0].Value.String() != "tag answered as not found" || attrs[1].Key != FieldEventType {
		t.Fatalf("unexpected attrs %v", attrs)
	}
}
