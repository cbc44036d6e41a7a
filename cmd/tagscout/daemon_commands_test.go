package main

import (
	"encoding/json"
	"testing"

	"tagscout/internal/api"
	"tagscout/internal/media"
	"tagscout/internal/testsupport"
)

func TestStatusAgainstRunningDaemon(t *testing.T) {
	env := setupCLITestEnv(t)
	env.startDaemon(t)

	out, _, err := runCLI(t, env, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "[OK]")
	requireContains(t, out, "test-session")
	requireContains(t, out, "anilist")

	out, _, err = runCLI(t, env, "status", "--json")
	if err != nil {
		t.Fatalf("status --json: %v", err)
	}
	var status api.DaemonStatus
	if err := json.Unmarshal([]byte(out), &status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if !status.Running || status.SessionID != "test-session" {
		t.Fatalf("unexpected status %+v", status)
	}
}

func TestStatusWithoutDaemon(t *testing.T) {
	env := setupCLITestEnv(t)
	env.addr = "127.0.0.1:1"
	out, _, err := runCLI(t, env, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "not reachable")
}

func TestSendPrintsAnswer(t *testing.T) {
	env := setupCLITestEnv(t)
	env.startDaemon(t)

	out, _, err := runCLI(t, env, "send", "--id", "m-1", "--server", "s-1", "have you seen {Trigun}")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	requireContains(t, out, "https://anilist.co/anime/6")

	out, _, err = runCLI(t, env, "send", "--id", "m-1", "--server", "s-1", "have you seen {Trigun}")
	if err != nil {
		t.Fatalf("send duplicate: %v", err)
	}
	requireContains(t, out, "already answered")
}

func TestStatsFromDaemon(t *testing.T) {
	env := setupCLITestEnv(t)
	env.startDaemon(t)
	testsupport.RecordRequests(t, env.store, "alice", "s-1", media.Anime, "Trigun", 2)

	out, _, err := runCLI(t, env, "stats", "user", "alice")
	if err != nil {
		t.Fatalf("stats user: %v", err)
	}
	requireContains(t, out, "alice")
	requireContains(t, out, "Trigun")

	out, _, err = runCLI(t, env, "stats", "server", "s-1", "--json")
	if err != nil {
		t.Fatalf("stats server: %v", err)
	}
	var resp api.StatsResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if resp.Kind != "server" || resp.Summary.Requests != 2 {
		t.Fatalf("unexpected stats %+v", resp)
	}
}

func TestStatsFallsBackToLocalStore(t *testing.T) {
	env := setupCLITestEnv(t)
	store := testsupport.MustOpenStats(t, env.cfg)
	testsupport.RecordRequests(t, store, "bob", "s-2", media.Manga, "Monster", 1)
	env.addr = "127.0.0.1:1"

	out, stderr, err := runCLI(t, env, "stats", "user", "bob")
	if err != nil {
		t.Fatalf("stats user: %v", err)
	}
	requireContains(t, stderr, "reading the statistics database directly")
	requireContains(t, out, "Monster")

	out, _, err = runCLI(t, env, "stats", "user", "nobody", "--local")
	if err != nil {
		t.Fatalf("stats --local: %v", err)
	}
	requireContains(t, out, "No requests recorded for user nobody")
}

func TestStopWithoutDaemon(t *testing.T) {
	env := setupCLITestEnv(t)
	env.addr = "127.0.0.1:1"
	out, _, err := runCLI(t, env, "stop")
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	requireContains(t, out, "Daemon is not running")
}

func TestStartWhenAlreadyRunning(t *testing.T) {
	env := setupCLITestEnv(t)
	env.startDaemon(t)
	out, _, err := runCLI(t, env, "start")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	requireContains(t, out, "Daemon already running")
}
