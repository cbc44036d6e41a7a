package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"tagscout/internal/config"
	"tagscout/internal/daemonctl"
	"tagscout/internal/gateway"
	"tagscout/internal/logging"
	"tagscout/internal/pipeline"
	"tagscout/internal/stats"
)

const (
	// Handled message IDs are remembered this long for de-duplication.
	messageRetention = 24 * time.Hour
	pruneInterval    = time.Hour
)

// Dependencies are the components the daemon serves. Gateway and Overrides
// are optional.
type Dependencies struct {
	Store     *stats.Store
	Processor *pipeline.Processor
	Gateway   *gateway.Gateway
	Providers []string
	Overrides interface{ Len() int }
	SessionID string
}

// Daemon serves the HTTP API and chat gateway and enforces single-instance
// execution.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	deps   Dependencies

	lockPath string
	lock     *flock.Flock
	api      *apiServer

	running   atomic.Bool
	startedAt time.Time
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	SessionID    string
	StartedAt    time.Time
	StatsDBPath  string
	LockFilePath string
	APIAddress   string
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, deps Dependencies, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || deps.Store == nil || deps.Processor == nil {
		return nil, errors.New("daemon requires config, stats store, and processor")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	lockPath := daemonctl.LockPath(cfg)
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		deps:     deps,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	d.api = newAPIServer(cfg, d, logger)
	return d, nil
}

// Start acquires the daemon lock, starts the API server and the message
// pruning loop.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}
	if err := os.MkdirAll(filepath.Dir(d.lockPath), 0o755); err != nil {
		return fmt.Errorf("ensure lock directory: %w", err)
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another tagscout daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.api.start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return err
	}
	d.cancel = cancel
	d.startedAt = time.Now()

	d.wg.Go(func() { d.pruneLoop(runCtx) })

	d.running.Store(true)
	d.logger.Info("tagscout daemon started",
		logging.String("lock", d.lockPath),
		logging.String("api", d.api.address()),
	)
	return nil
}

// Stop shuts down the API server and gateway, drains pending statistics
// writes and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.stop()
	if d.deps.Gateway != nil {
		d.deps.Gateway.Close()
	}
	d.wg.Wait()
	d.deps.Processor.Wait()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("tagscout daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	return d.deps.Store.Close()
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	return Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		SessionID:    d.deps.SessionID,
		StartedAt:    d.startedAt,
		StatsDBPath:  d.deps.Store.Path(),
		LockFilePath: d.lockPath,
		APIAddress:   d.api.address(),
	}
}

// APIAddress returns the address the API server listens on, or "" before
// Start.
func (d *Daemon) APIAddress() string {
	return d.api.address()
}

func (d *Daemon) pruneLoop(ctx context.Context) {
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()
	d.prune(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.prune(ctx)
		}
	}
}

func (d *Daemon) prune(ctx context.Context) {
	removed, err := d.deps.Store.PruneMessages(ctx, time.Now().Add(-messageRetention))
	if err != nil {
		if ctx.Err() == nil {
			logging.WarnWithContext(d.logger, "message pruning failed", "message_prune_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the stats database"),
				logging.String(logging.FieldImpact, "de-duplication table keeps growing"),
			)
		}
		return
	}
	if removed > 0 {
		d.logger.Debug("pruned handled messages", logging.Int64("removed", removed))
	}
}
