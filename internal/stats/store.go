package stats

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"tagscout/internal/config"
)

// Store is the SQLite-backed statistics database. It is safe for concurrent
// use and may be opened by the daemon and the CLI at the same time.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

const (
	sqliteBusy   = 5 // SQLITE_BUSY primary result code
	busyAttempts = 5
	busyBackoff  = 10 * time.Millisecond
	busyMaxDelay = 200 * time.Millisecond

	// Fixed width keeps timestamps ordered when compared as text.
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// connPragmas are applied by the driver to every pooled connection.
var connPragmas = []string{
	"busy_timeout(5000)",
	"journal_mode(WAL)",
	"foreign_keys(1)",
}

// Open opens the database at paths.stats_db.
func Open(cfg *config.Config) (*Store, error) {
	if cfg == nil {
		return nil, errors.New("stats: config required")
	}
	return OpenPath(cfg.Paths.StatsDBPath)
}

// OpenPath opens the database at dbPath, creating the file and its schema
// when missing.
func OpenPath(dbPath string) (*Store, error) {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" {
		return nil, errors.New("stats: database path required")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("stats: create directory: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("stats: open %s: %w", dbPath, err)
	}
	store := &Store{db: db, path: dbPath, now: time.Now}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func dsn(path string) string {
	query := url.Values{}
	for _, pragma := range connPragmas {
		query.Add("_pragma", pragma)
	}
	return "file:" + path + "?" + query.Encode()
}

// Path returns the database file location.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return errors.New("stats store closed")
	}
	return s.db.PingContext(ensureContext(ctx))
}

// Close closes the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func ensureContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

func isSQLiteBusy(err error) bool {
	var coded interface{ Code() int }
	if errors.As(err, &coded) {
		return coded.Code()&0xff == sqliteBusy
	}
	return err != nil && (strings.Contains(err.Error(), "SQLITE_BUSY") || strings.Contains(err.Error(), "database is locked"))
}

// retryOnBusy runs op until it succeeds, fails with something other than
// SQLITE_BUSY, runs out of attempts or ctx ends.
func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyBackoff
	err := op()
	for attempt := 1; attempt < busyAttempts && isSQLiteBusy(err); attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay = min(delay*2, busyMaxDelay)
		err = op()
	}
	return err
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx = ensureContext(ctx)
	var res sql.Result
	err := retryOnBusy(ctx, func() error {
		var execErr error
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *Store) timestamp() string {
	return formatTime(s.now())
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
