package synthesis

import (
	"fmt"
	"strconv"
	"time"

	"tagscout/internal/media"
)

// Link is one provider's canonical page for the title.
type Link struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// Field is one labeled entry of the info line.
type Field struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Info labels.
const (
	LabelStatus      = "Status"
	LabelEpisodes    = "Episodes"
	LabelNextEpisode = "Next episode"
	LabelChapters    = "Chapters"
	LabelVolumes     = "Volumes"
	LabelGenres      = "Genres"
)

// Stats is the request history attached to a record when available.
type Stats struct {
	Requests int     `json:"requests"`
	Servers  int     `json:"servers"`
	Share    float64 `json:"share"`
}

func (s Stats) String() string {
	return fmt.Sprintf("%d requests across %d server(s) - %s%% of all requests",
		s.Requests, s.Servers, strconv.FormatFloat(s.Share, 'f', -1, 64))
}

// Record is the normalized answer for one tag. Description is empty unless
// Expanded is set.
type Record struct {
	Medium        media.Medium `json:"medium"`
	Query         string       `json:"query"`
	Title         string       `json:"title"`
	NativeTitle   string       `json:"native_title,omitempty"`
	Description   string       `json:"description,omitempty"`
	CoverURL      string       `json:"cover_url,omitempty"`
	Links         []Link       `json:"links"`
	Info          []Field      `json:"info"`
	NextEpisodeAt *time.Time   `json:"next_episode_at,omitempty"`
	Expanded      bool         `json:"expanded"`
	Stats         *Stats       `json:"stats,omitempty"`
}

// Field returns the value of the info entry labeled label.
func (r *Record) Field(label string) (string, bool) {
	if r == nil {
		return "", false
	}
	for _, field := range r.Info {
		if field.Label == label {
			return field.Value, true
		}
	}
	return "", false
}
