package stats

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tagscout/internal/media"
)

// RecordRequest stores one resolved request.
func (s *Store) RecordRequest(ctx context.Context, req Request) error {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return errors.New("record request: title required")
	}
	if strings.TrimSpace(req.RequesterID) == "" {
		return errors.New("record request: requester required")
	}
	if !req.Medium.Valid() {
		return fmt.Errorf("record request: invalid medium %q", req.Medium)
	}
	_, err := s.execWithRetry(ctx, `INSERT INTO requests
        (message_id, requester_id, server_id, channel_id, medium, title, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)`,
		req.MessageID, req.RequesterID, req.ServerID, req.ChannelID, string(req.Medium), title, s.timestamp(),
	)
	if err != nil {
		return fmt.Errorf("record request: %w", err)
	}
	return nil
}

// UserStats summarizes requests made by one requester.
func (s *Store) UserStats(ctx context.Context, requesterID string) (Summary, error) {
	return s.summary(ctx, "requester_id", requesterID)
}

// ServerStats summarizes requests made within one server.
func (s *Store) ServerStats(ctx context.Context, serverID string) (Summary, error) {
	return s.summary(ctx, "server_id", serverID)
}

// summary runs the aggregate queries for column, which is always one of the
// two fixed column names above.
func (s *Store) summary(ctx context.Context, column, subject string) (Summary, error) {
	ctx = ensureContext(ctx)
	out := Summary{Subject: subject}

	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM requests").Scan(&out.GlobalRequests); err != nil {
		return Summary{}, fmt.Errorf("count requests: %w", err)
	}
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM requests WHERE "+column+" = ?", subject,
	).Scan(&out.Requests); err != nil {
		return Summary{}, fmt.Errorf("count %s requests: %w", column, err)
	}
	if out.Requests == 0 {
		return out, nil
	}
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM (SELECT DISTINCT title, medium FROM requests WHERE "+column+" = ?)", subject,
	).Scan(&out.UniqueTitles); err != nil {
		return Summary{}, fmt.Errorf("count unique titles: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT pos FROM (
            SELECT `+column+` AS subject, ROW_NUMBER() OVER (ORDER BY COUNT(*) DESC, `+column+` ASC) AS pos
            FROM requests GROUP BY `+column+`
        ) WHERE subject = ?`, subject,
	).Scan(&out.Rank); err != nil {
		return Summary{}, fmt.Errorf("rank %s: %w", column, err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT title, medium, COUNT(*) AS n FROM requests
        WHERE `+column+` = ?
        GROUP BY title, medium ORDER BY n DESC, title ASC LIMIT ?`, subject, topTitlesLimit)
	if err != nil {
		return Summary{}, fmt.Errorf("top titles: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var row TitleCount
		var medium string
		if err := rows.Scan(&row.Title, &medium, &row.Count); err != nil {
			return Summary{}, fmt.Errorf("scan top title: %w", err)
		}
		row.Medium = media.Medium(medium)
		out.Top = append(out.Top, row)
	}
	if err := rows.Err(); err != nil {
		return Summary{}, fmt.Errorf("iterate top titles: %w", err)
	}
	return out, nil
}

// TitleStats reports how often title has been requested for medium.
func (s *Store) TitleStats(ctx context.Context, medium media.Medium, title string) (TitleStats, error) {
	ctx = ensureContext(ctx)
	var global int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM requests").Scan(&global); err != nil {
		return TitleStats{}, fmt.Errorf("count requests: %w", err)
	}
	var out TitleStats
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*), COUNT(DISTINCT server_id) FROM requests WHERE title = ? AND medium = ?",
		strings.TrimSpace(title), string(medium),
	).Scan(&out.Requests, &out.Servers); err != nil {
		return TitleStats{}, fmt.Errorf("title stats: %w", err)
	}
	out.Share = percentage(out.Requests, global)
	return out, nil
}
