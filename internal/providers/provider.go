package providers

import (
	"context"
	"strings"
	"time"

	"tagscout/internal/media"
)

// Provider identifiers used in configuration, override catalogs and links.
const (
	AniList      = "anilist"
	MAL          = "mal"
	Kitsu        = "kitsu"
	AnimePlanet  = "animeplanet"
	AniDB        = "anidb"
	MangaUpdates = "mangaupdates"
	NovelUpdates = "novelupdates"
	LNDB         = "lndb"
)

var displayNames = map[string]string{
	AniList:      "AniList",
	MAL:          "MAL",
	Kitsu:        "Kitsu",
	AnimePlanet:  "Anime-Planet",
	AniDB:        "AniDB",
	MangaUpdates: "MangaUpdates",
	NovelUpdates: "NovelUpdates",
	LNDB:         "LNDB",
}

// DisplayName returns the fixed link label for a provider ID.
func DisplayName(id string) string {
	if name, ok := displayNames[id]; ok {
		return name
	}
	return id
}

// Canonical status tokens shared by every adapter.
const (
	StatusFinished       = "FINISHED"
	StatusReleasing      = "RELEASING"
	StatusNotYetReleased = "NOT_YET_RELEASED"
	StatusCancelled      = "CANCELLED"
	StatusHiatus         = "HIATUS"
)

// Provider is implemented once per external source.
type Provider interface {
	ID() string
	Supports(medium media.Medium) bool
	// Search returns nil, nil when the source has no match.
	Search(ctx context.Context, query string, medium media.Medium) (*Result, error)
	// FetchByID looks up a record by the source's own identifier.
	FetchByID(ctx context.Context, id string, medium media.Medium) (*Result, error)
	// Synonyms returns alternate titles for a result without network access.
	Synonyms(result *Result) []string
}

// Result is one provider's view of a title. Counts are zero when unknown.
type Result struct {
	Provider     string         `json:"provider"`
	ID           string         `json:"id,omitempty"`
	Title        string         `json:"title,omitempty"`
	EnglishTitle string         `json:"english_title,omitempty"`
	NativeTitle  string         `json:"native_title,omitempty"`
	Status       string         `json:"status,omitempty"`
	Episodes     int            `json:"episodes,omitempty"`
	Chapters     int            `json:"chapters,omitempty"`
	Volumes      int            `json:"volumes,omitempty"`
	Genres       []string       `json:"genres,omitempty"`
	Description  string         `json:"description,omitempty"`
	CoverURL     string         `json:"cover_url,omitempty"`
	URL          string         `json:"url,omitempty"`
	NextAiringIn *time.Duration `json:"next_airing_in,omitempty"`
	Synonyms     []string       `json:"synonyms,omitempty"`
}

// LinkOnly reports whether the result carries nothing but a canonical URL.
func (r *Result) LinkOnly() bool {
	if r == nil {
		return false
	}
	return r.Title == "" && r.EnglishTitle == "" && r.NativeTitle == "" && r.URL != ""
}

// DisplayTitle returns the best title the result offers.
func (r *Result) DisplayTitle() string {
	if r == nil {
		return ""
	}
	for _, candidate := range []string{r.Title, r.EnglishTitle, r.NativeTitle} {
		if strings.TrimSpace(candidate) != "" {
			return strings.TrimSpace(candidate)
		}
	}
	return ""
}

// DefaultSynonyms collects the title variants and synonyms stored on a
// result, skipping blanks and case-insensitive duplicates.
func DefaultSynonyms(result *Result) []string {
	if result == nil {
		return nil
	}
	candidates := make([]string, 0, len(result.Synonyms)+3)
	candidates = append(candidates, result.Title, result.EnglishTitle, result.NativeTitle)
	candidates = append(candidates, result.Synonyms...)
	return UniqueStrings(candidates)
}

// UniqueStrings trims values and drops blanks and case-insensitive
// duplicates while keeping the first occurrence.
func UniqueStrings(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		key := strings.ToLower(trimmed)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}
