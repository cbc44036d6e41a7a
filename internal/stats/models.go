package stats

import "tagscout/internal/media"

// Request is one successfully resolved tag.
type Request struct {
	MessageID   string       `json:"message_id"`
	RequesterID string       `json:"requester_id"`
	ServerID    string       `json:"server_id"`
	ChannelID   string       `json:"channel_id"`
	Medium      media.Medium `json:"medium"`
	Title       string       `json:"title"`
}

// TitleCount is one row of a top-titles listing.
type TitleCount struct {
	Title  string       `json:"title"`
	Medium media.Medium `json:"medium"`
	Count  int          `json:"count"`
}

// Summary aggregates requests made by one user or within one server. Rank
// is 1-based among all users (or servers) by request count; zero when the
// subject has no requests.
type Summary struct {
	Subject        string       `json:"subject"`
	GlobalRequests int          `json:"global_requests"`
	Requests       int          `json:"requests"`
	UniqueTitles   int          `json:"unique_titles"`
	Rank           int          `json:"rank"`
	Top            []TitleCount `json:"top"`
}

// Share returns the subject's requests as a percentage of all requests.
func (s Summary) Share() float64 {
	return percentage(s.Requests, s.GlobalRequests)
}

// TitleStats describes how often one title has been requested.
type TitleStats struct {
	Requests int     `json:"requests"`
	Servers  int     `json:"servers"`
	Share    float64 `json:"share"`
}

const topTitlesLimit = 5

func percentage(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	scaled := float64(part) * 100 / float64(total)
	return float64(int64(scaled*1000+0.5)) / 1000
}
