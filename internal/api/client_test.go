package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"tagscout/internal/api"
	"tagscout/internal/pipeline"
	"tagscout/internal/stats"
)

func TestClientSendsTokenAndDecodes(t *testing.T) {
	var gotAuth, gotPath string
	var gotMessage pipeline.Message
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		switch r.URL.Path {
		case "/api/messages":
			_ = json.NewDecoder(r.Body).Decode(&gotMessage)
			_ = json.NewEncoder(w).Encode(api.MessageResponse{Text: "Trigun"})
		case "/api/stats/users/a b":
			_ = json.NewEncoder(w).Encode(api.StatsResponse{Kind: "user", Summary: stats.Summary{Subject: "a b", Requests: 4}})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client, err := api.NewClient(strings.TrimPrefix(srv.URL, "http://"), api.WithToken("secret"))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	resp, err := client.SendMessage(context.Background(), pipeline.Message{Body: "{Trigun}", AuthorID: "cli"})
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if resp.Text != "Trigun" || gotMessage.Body != "{Trigun}" || gotAuth != "Bearer secret" {
		t.Fatalf("unexpected exchange: resp=%+v msg=%+v auth=%q", resp, gotMessage, gotAuth)
	}

	userStats, err := client.UserStats(context.Background(), "a b")
	if err != nil {
		t.Fatalf("UserStats: %v", err)
	}
	if userStats.Summary.Requests != 4 || gotPath != "/api/stats/users/a b" {
		t.Fatalf("unexpected stats %+v path %q", userStats, gotPath)
	}
}

func TestClientReportsAPIErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(api.ErrorResponse{Error: "unauthorized"})
	}))
	defer srv.Close()

	client, err := api.NewClient(srv.URL)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	_, err = client.Status(context.Background())
	if err == nil || !strings.Contains(err.Error(), "unauthorized (status 401)") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestClientUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	client, err := api.NewClient(addr)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := client.Status(context.Background()); !errors.Is(err, api.ErrDaemonUnavailable) {
		t.Fatalf("expected ErrDaemonUnavailable, got %v", err)
	}
}

func TestNewClientRequiresAddress(t *testing.T) {
	if _, err := api.NewClient("  "); err == nil {
		t.Fatal("expected error for empty address")
	}
}
