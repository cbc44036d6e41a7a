package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"tagscout/internal/config"
	"tagscout/internal/daemon"
	"tagscout/internal/daemonrun"
	"tagscout/internal/logging"
	"tagscout/internal/media"
	"tagscout/internal/pipeline"
	"tagscout/internal/providers"
	"tagscout/internal/resolution"
	"tagscout/internal/stats"
	"tagscout/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	registry   *providers.Registry
	store      *stats.Store
	daemon     *daemon.Daemon
	addr       string
}

// setupCLITestEnv writes a config file and swaps the lookup stack for a fake
// AniList provider. The daemon is not started.
func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	t.Setenv("HOME", t.TempDir())
	cfg := testsupport.NewConfig(t,
		testsupport.WithRanking(media.Anime, []string{"anilist"}, nil),
		testsupport.WithRanking(media.Manga, []string{"anilist"}, nil),
		testsupport.WithRanking(media.LightNovel, []string{"anilist"}, nil),
	)
	configPath := filepath.Join(filepath.Dir(cfg.Paths.DataDir), "config.toml")
	writeTestConfig(t, configPath, cfg)

	provider := testsupport.NewFakeProvider("anilist").
		WithHit("Trigun", providers.Result{Title: "Trigun", URL: "https://anilist.co/anime/6"}).
		WithHit("Monster", providers.Result{
			Title:       "Monster",
			URL:         "https://anilist.co/manga/30001",
			Description: "A surgeon's life changes after one operation.",
		})
	registry := providers.NewRegistry()
	registry.Register(provider)

	previous := bootstrapComponents
	bootstrapComponents = func(cfg *config.Config, logger *slog.Logger) (*daemonrun.Components, error) {
		engine, err := resolution.New(cfg, registry, logger)
		if err != nil {
			return nil, err
		}
		return &daemonrun.Components{Registry: registry, Engine: engine}, nil
	}
	t.Cleanup(func() { bootstrapComponents = previous })

	return &cliTestEnv{cfg: cfg, configPath: configPath, registry: registry}
}

// startDaemon runs a daemon over the env's config and fake provider.
func (e *cliTestEnv) startDaemon(t *testing.T) {
	t.Helper()

	engine, err := resolution.New(e.cfg, e.registry, logging.NewNop())
	if err != nil {
		t.Fatalf("resolution.New: %v", err)
	}
	e.store = testsupport.MustOpenStats(t, e.cfg)
	processor, err := pipeline.New(e.cfg, engine, logging.NewNop(), pipeline.WithStore(e.store))
	if err != nil {
		t.Fatalf("pipeline.New: %v", err)
	}
	d, err := daemon.New(e.cfg, daemon.Dependencies{
		Store:     e.store,
		Processor: processor,
		Providers: e.registry.IDs(),
		SessionID: "test-session",
	}, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	if err := d.Start(ctx); err != nil {
		cancel()
		t.Fatalf("daemon start: %v", err)
	}
	t.Cleanup(func() {
		d.Stop()
		cancel()
	})
	e.daemon = d
	e.addr = d.APIAddress()
}

func runCLI(t *testing.T, env *cliTestEnv, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(""))
	flags := []string{"--config", env.configPath}
	if env.addr != "" {
		flags = append(flags, "--addr", env.addr)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
