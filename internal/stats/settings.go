package stats

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ExpandedAllowed reports whether doubled tags may be answered expanded on
// the server. Unknown servers allow it.
func (s *Store) ExpandedAllowed(ctx context.Context, serverID string) (bool, error) {
	ctx = ensureContext(ctx)
	var disabled bool
	err := s.db.QueryRowContext(ctx, "SELECT expanded_disabled FROM servers WHERE server_id = ?", serverID).Scan(&disabled)
	if errors.Is(err, sql.ErrNoRows) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("read server setting: %w", err)
	}
	return !disabled, nil
}

// ToggleExpanded flips whether the server allows expanded answers and
// returns the new value. The first toggle of a server disables them.
func (s *Store) ToggleExpanded(ctx context.Context, serverID string) (bool, error) {
	if strings.TrimSpace(serverID) == "" {
		return false, errors.New("toggle expanded: server required")
	}
	ctx = ensureContext(ctx)
	var disabled bool
	err := retryOnBusy(ctx, func() error {
		return s.db.QueryRowContext(ctx, `INSERT INTO servers (server_id, expanded_disabled, updated_at) VALUES (?, 1, ?)
            ON CONFLICT(server_id) DO UPDATE SET expanded_disabled = NOT servers.expanded_disabled, updated_at = excluded.updated_at
            RETURNING expanded_disabled`, serverID, s.timestamp()).Scan(&disabled)
	})
	if err != nil {
		return false, fmt.Errorf("toggle expanded: %w", err)
	}
	return !disabled, nil
}

// MarkMessage records messageID as handled. It returns false when the
// message was already marked.
func (s *Store) MarkMessage(ctx context.Context, messageID string) (bool, error) {
	if strings.TrimSpace(messageID) == "" {
		return true, nil
	}
	res, err := s.execWithRetry(ctx,
		"INSERT OR IGNORE INTO messages (message_id, seen_at) VALUES (?, ?)", messageID, s.timestamp())
	if err != nil {
		return false, fmt.Errorf("mark message: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark message: %w", err)
	}
	return affected == 1, nil
}

// PruneMessages forgets handled messages marked before cutoff and returns
// how many were removed.
func (s *Store) PruneMessages(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.execWithRetry(ctx, "DELETE FROM messages WHERE seen_at < ?", formatTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("prune messages: %w", err)
	}
	return res.RowsAffected()
}
