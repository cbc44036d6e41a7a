package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"tagscout/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrProviderUnavailable, "anilist", "search", "request failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrProviderUnavailable) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"anilist", "search", "request failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestIsAbsent(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"unavailable", services.Wrap(services.ErrProviderUnavailable, "kitsu", "search", "", errors.New("eof")), true},
		{"deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), true},
		{"timeout", services.Wrap(services.ErrTimeout, "engine", "resolve", "", nil), true},
		{"config", services.Wrap(services.ErrConfiguration, "config", "load", "", nil), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := services.IsAbsent(tc.err); got != tc.want {
				t.Fatalf("IsAbsent(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestOutcomeLabels(t *testing.T) {
	if got := services.Outcome(nil); got != "ok" {
		t.Fatalf("expected ok, got %q", got)
	}
	if got := services.Outcome(context.DeadlineExceeded); got != "timeout" {
		t.Fatalf("expected timeout, got %q", got)
	}
	if got := services.Outcome(services.Wrap(services.ErrNotFound, "", "", "", nil)); got != "not_found" {
		t.Fatalf("expected not_found, got %q", got)
	}
	if got := services.Outcome(errors.New("other")); got != "error" {
		t.Fatalf("expected error, got %q", got)
	}
}
