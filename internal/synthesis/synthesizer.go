package synthesis

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"tagscout/internal/media"
	"tagscout/internal/providers"
	"tagscout/internal/resolution"
	"tagscout/internal/services"
)

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithClock replaces time.Now for countdown anchoring.
func WithClock(now func() time.Time) Option {
	return func(s *Synthesizer) {
		if now != nil {
			s.now = now
		}
	}
}

// Synthesizer builds records from resolved entities.
type Synthesizer struct {
	now func() time.Time
}

// New creates a Synthesizer.
func New(opts ...Option) *Synthesizer {
	s := &Synthesizer{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Synthesize merges entity into a record. An entity without results, or
// whose results are all link-only, yields services.ErrNotFound.
func (s *Synthesizer) Synthesize(entity *resolution.Entity, expanded bool) (*Record, error) {
	if entity.Empty() {
		query := ""
		if entity != nil {
			query = entity.Query
		}
		return nil, services.Wrap(services.ErrNotFound, "synthesis", "synthesize", fmt.Sprintf("no results for %q", query), nil)
	}
	ranked := entity.Ranked()

	record := &Record{
		Medium:      entity.Medium,
		Query:       entity.Query,
		Title:       first(ranked, func(r *providers.Result) string { return r.DisplayTitle() }),
		NativeTitle: first(ranked, func(r *providers.Result) string { return r.NativeTitle }),
		CoverURL:    first(ranked, func(r *providers.Result) string { return r.CoverURL }),
		Expanded:    expanded,
	}
	if record.Title == "" {
		return nil, services.Wrap(services.ErrNotFound, "synthesis", "synthesize",
			fmt.Sprintf("no provider supplied a title for %q", entity.Query), nil)
	}
	if record.NativeTitle == record.Title {
		record.NativeTitle = ""
	}
	if expanded {
		record.Description = first(ranked, func(r *providers.Result) string { return CleanDescription(r.Description) })
	}
	for _, result := range ranked {
		if url := strings.TrimSpace(result.URL); url != "" {
			record.Links = append(record.Links, Link{Label: providers.DisplayName(result.Provider), URL: url})
		}
	}
	record.Info = s.info(record, entity.Medium, ranked)
	return record, nil
}

func (s *Synthesizer) info(record *Record, medium media.Medium, ranked []*providers.Result) []Field {
	var fields []Field
	add := func(label, value string) {
		if value != "" {
			fields = append(fields, Field{Label: label, Value: value})
		}
	}

	status := first(ranked, func(r *providers.Result) string { return r.Status })
	add(LabelStatus, StatusLabel(status))

	switch medium {
	case media.Anime:
		add(LabelEpisodes, count(ranked, func(r *providers.Result) int { return r.Episodes }))
		if status != providers.StatusFinished {
			if next := nextAiring(ranked); next > 0 {
				at := s.now().Add(next)
				record.NextEpisodeAt = &at
				add(LabelNextEpisode, Countdown(next))
			}
		}
	case media.Manga, media.LightNovel:
		add(LabelChapters, count(ranked, func(r *providers.Result) int { return r.Chapters }))
		add(LabelVolumes, count(ranked, func(r *providers.Result) int { return r.Volumes }))
	}

	for _, result := range ranked {
		if genres := providers.UniqueStrings(result.Genres); len(genres) > 0 {
			add(LabelGenres, strings.Join(genres, ", "))
			break
		}
	}
	return fields
}

// StatusLabel renders a canonical status token for display, e.g.
// "NOT_YET_RELEASED" becomes "Not Yet Released".
func StatusLabel(status string) string {
	status = strings.TrimSpace(status)
	if status == "" {
		return ""
	}
	// Casers carry state and are not shared across goroutines.
	return cases.Title(language.English).String(strings.ToLower(strings.ReplaceAll(status, "_", " ")))
}

// Countdown renders d as whole days and hours, e.g. "2 days 5 hours".
func Countdown(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	days := int(d / (24 * time.Hour))
	hours := int((d % (24 * time.Hour)) / time.Hour)
	return plural(days, "day") + " " + plural(hours, "hour")
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return strconv.Itoa(n) + " " + unit + "s"
}

func first(ranked []*providers.Result, pick func(*providers.Result) string) string {
	for _, result := range ranked {
		if value := strings.TrimSpace(pick(result)); value != "" {
			return value
		}
	}
	return ""
}

func count(ranked []*providers.Result, pick func(*providers.Result) int) string {
	for _, result := range ranked {
		if value := pick(result); value > 0 {
			return strconv.Itoa(value)
		}
	}
	return ""
}

func nextAiring(ranked []*providers.Result) time.Duration {
	for _, result := range ranked {
		if result.NextAiringIn != nil && *result.NextAiringIn > 0 {
			return *result.NextAiringIn
		}
	}
	return 0
}
