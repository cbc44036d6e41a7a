package daemon_test

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"tagscout/internal/api"
	"tagscout/internal/config"
	"tagscout/internal/daemon"
	"tagscout/internal/logging"
	"tagscout/internal/media"
	"tagscout/internal/pipeline"
	"tagscout/internal/providers"
	"tagscout/internal/resolution"
	"tagscout/internal/testsupport"
)

func newDaemon(t *testing.T, cfg *config.Config) *daemon.Daemon {
	t.Helper()
	provider := testsupport.NewFakeProvider("anilist").
		WithHit("Trigun", providers.Result{Title: "Trigun", URL: "https://anilist.co/anime/6"})
	registry := providers.NewRegistry()
	registry.Register(provider)
	engine, err := resolution.New(cfg, registry, logging.NewNop())
	if err != nil {
		t.Fatalf("resolution.New: %v", err)
	}
	store := testsupport.MustOpenStats(t, cfg)
	processor, err := pipeline.New(cfg, engine, logging.NewNop(), pipeline.WithStore(store))
	if err != nil {
		t.Fatalf("pipeline.New: %v", err)
	}
	d, err := daemon.New(cfg, daemon.Dependencies{
		Store:     store,
		Processor: processor,
		Providers: registry.IDs(),
	}, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(d.Stop)
	return d
}

func animeOnlyConfig(t *testing.T, opts ...testsupport.ConfigOption) *config.Config {
	t.Helper()
	opts = append(opts,
		testsupport.WithRanking(media.Anime, []string{"anilist"}, nil),
		testsupport.WithRanking(media.Manga, []string{"anilist"}, nil),
		testsupport.WithRanking(media.LightNovel, []string{"anilist"}, nil),
	)
	return testsupport.NewConfig(t, opts...)
}

func TestDaemonStartStop(t *testing.T) {
	cfg := animeOnlyConfig(t)
	d := newDaemon(t, cfg)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	status := d.Status()
	if !status.Running || status.APIAddress == "" {
		t.Fatalf("expected running daemon with API address, got %+v", status)
	}

	// Second start should fail
	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}

	d.Stop()
	if d.Status().Running {
		t.Fatal("expected daemon to be stopped")
	}
}

func TestDaemonRejectsSecondInstance(t *testing.T) {
	cfg := animeOnlyConfig(t)
	first := newDaemon(t, cfg)
	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	secondCfg := *cfg
	secondCfg.Paths.StatsDBPath = cfg.Paths.StatsDBPath + ".second"
	second := newDaemon(t, &secondCfg)
	err := second.Start(context.Background())
	if err == nil || !strings.Contains(err.Error(), "already running") {
		t.Fatalf("expected lock error, got %v", err)
	}
}

func TestDaemonServesAPI(t *testing.T) {
	cfg := animeOnlyConfig(t, testsupport.WithAPIToken("secret"))
	d := newDaemon(t, cfg)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	ctx := context.Background()

	anonymous, err := api.NewClient(d.APIAddress())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := anonymous.Status(ctx); err == nil || !strings.Contains(err.Error(), "401") {
		t.Fatalf("expected unauthorized, got %v", err)
	}

	client, err := api.NewClient(d.APIAddress(), api.WithToken("secret"))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	status, err := client.Status(ctx)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !status.Running || len(status.Rankings) != 3 || status.Providers[0] != "anilist" {
		t.Fatalf("unexpected status %+v", status)
	}

	resp, err := client.SendMessage(ctx, pipeline.Message{ID: "m1", Body: "{Trigun} {Nope}", AuthorID: "alice", ServerID: "guild"})
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	want := "Trigun\nAniList: https://anilist.co/anime/6\n\nNo anime found for \"Nope\"."
	if resp.Text != want {
		t.Fatalf("text = %q, want %q", resp.Text, want)
	}
}

func TestDaemonStatsEndpoints(t *testing.T) {
	cfg := animeOnlyConfig(t)
	d := newDaemon(t, cfg)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	client, err := api.NewClient(d.APIAddress())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	ctx := context.Background()
	if _, err := client.SendMessage(ctx, pipeline.Message{ID: "m1", Body: "{Trigun}", AuthorID: "alice", ServerID: "guild"}); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	// Statistics are written in the background.
	var userStats api.StatsResponse
	for range 50 {
		userStats, err = client.UserStats(ctx, "alice")
		if err != nil {
			t.Fatalf("UserStats: %v", err)
		}
		if userStats.Summary.Requests == 1 {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if userStats.Summary.Requests != 1 || userStats.Summary.Rank != 1 || userStats.Kind != "user" {
		t.Fatalf("unexpected user stats %+v", userStats)
	}

	serverStats, err := client.ServerStats(ctx, "guild")
	if err != nil {
		t.Fatalf("ServerStats: %v", err)
	}
	if serverStats.Summary.Requests != 1 || !strings.Contains(serverStats.Text, "1. Trigun (Anime - 1 requests)") {
		t.Fatalf("unexpected server stats %+v", serverStats)
	}
}

func TestDaemonRejectsInvalidMessage(t *testing.T) {
	cfg := animeOnlyConfig(t)
	d := newDaemon(t, cfg)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	resp, err := http.Post("http://"+d.APIAddress()+"/api/messages", "application/json", strings.NewReader(`{"text":"x"}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	var body api.ErrorResponse
	_ = json.NewDecoder(resp.Body).Decode(&body)
	if resp.StatusCode != http.StatusBadRequest || body.Error == "" {
		t.Fatalf("status=%d body=%+v", resp.StatusCode, body)
	}

	metrics, err := http.Get("http://" + d.APIAddress() + "/metrics")
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	defer metrics.Body.Close()
	if metrics.StatusCode != http.StatusOK {
		t.Fatalf("metrics status = %d", metrics.StatusCode)
	}
}
