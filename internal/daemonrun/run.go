package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"

	"tagscout/internal/config"
	"tagscout/internal/daemon"
	"tagscout/internal/daemonctl"
	"tagscout/internal/gateway"
	"tagscout/internal/logging"
	"tagscout/internal/media"
	"tagscout/internal/pipeline"
	"tagscout/internal/stats"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
}

// Run starts the tagscout daemon and blocks until the process is signalled
// or cmdCtx ends.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	sessionID := uuid.NewString()
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("tagscoutd-%s.log", runID))

	level := cfg.Logging.Level
	if opts.LogLevel != "" {
		level = opts.LogLevel
	}
	logger, err := logging.New(logging.Options{
		Level:           level,
		Format:          cfg.Logging.Format,
		OutputPaths:     []string{"stdout"},
		JSONPath:        logPath,
		Development:     opts.Development,
		ComponentLevels: cfg.Logging.ComponentLevels,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger = logger.With(logging.String("session_id", sessionID))

	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update %s link: %v\n", logging.LogFileName, err)
	}
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays,
		logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: "tagscoutd-*.log", Exclude: []string{logPath}},
	)
	pidPath := daemonctl.PIDPath(cfg)
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	components, err := Bootstrap(cfg, logger)
	if err != nil {
		logger.Error("bootstrap failed", logging.Error(err))
		return err
	}
	logProviderSnapshot(logger, cfg, components)

	store, err := stats.Open(cfg)
	if err != nil {
		logger.Error("open stats store", logging.Error(err))
		return err
	}

	levels := cfg.Logging.ComponentLevels
	processor, err := pipeline.New(cfg, components.Engine, logging.ForComponent(logger, "pipeline", levels),
		pipeline.WithStore(store))
	if err != nil {
		_ = store.Close()
		return fmt.Errorf("create processor: %w", err)
	}

	var gw *gateway.Gateway
	if cfg.Gateway.Enabled {
		gw, err = gateway.New(cfg, processor, logging.ForComponent(logger, "gateway", levels))
		if err != nil {
			_ = store.Close()
			return fmt.Errorf("create gateway: %w", err)
		}
	}

	deps := daemon.Dependencies{
		Store:     store,
		Processor: processor,
		Gateway:   gw,
		Providers: components.Registry.IDs(),
		SessionID: sessionID,
	}
	if components.Catalog != nil {
		deps.Overrides = components.Catalog
	}
	d, err := daemon.New(cfg, deps, logger)
	if err != nil {
		_ = store.Close()
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		logging.ErrorWithContext(logger, "daemon start failed", "daemon_start_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check paths.api_bind and that no other tagscoutd is running"),
			logging.String(logging.FieldImpact, "no messages are answered"),
		)
		return err
	}

	<-signalCtx.Done()
	logger.Info("tagscout daemon shutting down")
	return nil
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, logging.LogFileName)
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logProviderSnapshot(logger *slog.Logger, cfg *config.Config, components *Components) {
	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "provider_snapshot"),
		logging.Any("providers", components.Registry.IDs()),
		logging.Bool("anilist_token_present", cfg.Providers.AniList.Token != ""),
		logging.Int("overrides", components.Catalog.Len()),
		logging.Bool("gateway_enabled", cfg.Gateway.Enabled),
	}
	for _, medium := range media.All() {
		attrs = append(attrs, logging.Any("ranking_"+string(medium), components.Engine.Ranking(medium)))
	}
	logger.Info("provider snapshot", logging.Args(attrs...)...)
}
