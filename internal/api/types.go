package api

import (
	"time"

	"tagscout/internal/pipeline"
	"tagscout/internal/stats"
)

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// FormatTime renders t in the API timestamp format.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}

// ProviderRanking is the provider order configured for one medium.
type ProviderRanking struct {
	Medium    string   `json:"medium"`
	Primary   []string `json:"primary"`
	Auxiliary []string `json:"auxiliary"`
}

// DaemonStatus is the payload of GET /api/status.
type DaemonStatus struct {
	Running        bool              `json:"running"`
	PID            int               `json:"pid"`
	SessionID      string            `json:"session_id,omitempty"`
	StartedAt      string            `json:"started_at,omitempty"`
	Uptime         string            `json:"uptime,omitempty"`
	StatsDBPath    string            `json:"stats_db_path"`
	LockFilePath   string            `json:"lock_file_path"`
	OverridesPath  string            `json:"overrides_path,omitempty"`
	Overrides      int               `json:"overrides"`
	GatewayEnabled bool              `json:"gateway_enabled"`
	Providers      []string          `json:"providers"`
	Rankings       []ProviderRanking `json:"rankings"`
}

// MessageResponse is the payload of POST /api/messages.
type MessageResponse struct {
	Reply pipeline.Reply `json:"reply"`
	Text  string         `json:"text"`
}

// StatsResponse is the payload of the user and server stats endpoints.
type StatsResponse struct {
	Kind    string        `json:"kind"`
	Summary stats.Summary `json:"summary"`
	Share   float64       `json:"share"`
	Text    string        `json:"text"`
}

// ErrorResponse is returned with every non-2xx status.
type ErrorResponse struct {
	Error string `json:"error"`
}
