package testsupport

import (
	"context"
	"testing"

	"tagscout/internal/config"
	"tagscout/internal/media"
	"tagscout/internal/stats"
)

// MustOpenStats opens a stats.Store for tests and registers cleanup.
func MustOpenStats(t testing.TB, cfg *config.Config) *stats.Store {
	t.Helper()

	store, err := stats.Open(cfg)
	if err != nil {
		t.Fatalf("stats.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// RecordRequests stores count identical requests for title.
func RecordRequests(t testing.TB, store *stats.Store, requester, server string, medium media.Medium, title string, count int) {
	t.Helper()

	for range count {
		err := store.RecordRequest(context.Background(), stats.Request{
			RequesterID: requester,
			ServerID:    server,
			Medium:      medium,
			Title:       title,
		})
		if err != nil {
			t.Fatalf("store.RecordRequest: %v", err)
		}
	}
}
