// Package anilist adapts the AniList GraphQL API, the aggregate source that
// ranks first for every medium by default.
package anilist

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tagscout/internal/media"
	"tagscout/internal/providers"
	"tagscout/internal/services"
)

// DefaultBaseURL is the public AniList GraphQL endpoint.
const DefaultBaseURL = "https://graphql.anilist.co"

const mediaQuery = `query ($id: Int, $search: String, $type: MediaType, $format: MediaFormat, $formatNot: MediaFormat) {
  Media(id: $id, search: $search, type: $type, format: $format, format_not: $formatNot) {
    id
    siteUrl
    title { romaji english native }
    synonyms
    status
    episodes
    chapters
    volumes
    genres
    description(asHtml: false)
    coverImage { large }
    nextAiringEpisode { timeUntilAiring episode }
  }
}`

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphQLResponse struct {
	Data struct {
		Media *mediaPayload `json:"Media"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
		Status  int    `json:"status"`
	} `json:"errors"`
}

type mediaPayload struct {
	ID      int64  `json:"id"`
	SiteURL string `json:"siteUrl"`
	Title   struct {
		Romaji  string `json:"romaji"`
		English string `json:"english"`
		Native  string `json:"native"`
	} `json:"title"`
	Synonyms    []string `json:"synonyms"`
	Status      string   `json:"status"`
	Episodes    *int     `json:"episodes"`
	Chapters    *int     `json:"chapters"`
	Volumes     *int     `json:"volumes"`
	Genres      []string `json:"genres"`
	Description string   `json:"description"`
	CoverImage  struct {
		Large string `json:"large"`
	} `json:"coverImage"`
	NextAiringEpisode *struct {
		TimeUntilAiring int64 `json:"timeUntilAiring"`
		Episode         int   `json:"episode"`
	} `json:"nextAiringEpisode"`
}

// Client queries AniList.
type Client struct {
	baseURL string
	token   string
	fetcher *providers.Fetcher
}

var _ providers.Provider = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithToken sets an OAuth bearer token, which raises AniList's rate limit.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = strings.TrimSpace(token)
	}
}

// WithFetcher overrides the default fetcher.
func WithFetcher(fetcher *providers.Fetcher) Option {
	return func(c *Client) {
		if fetcher != nil {
			c.fetcher = fetcher
		}
	}
}

// New creates an AniList client.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("anilist base url required")
	}
	client := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		fetcher: providers.NewFetcher(providers.AniList, providers.FetcherOptions{}),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// ID implements providers.Provider.
func (c *Client) ID() string { return providers.AniList }

// Supports implements providers.Provider.
func (c *Client) Supports(medium media.Medium) bool { return medium.Valid() }

// Search returns the first AniList match for query.
func (c *Client) Search(ctx context.Context, query string, medium media.Medium) (*providers.Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, services.Wrap(services.ErrValidation, providers.AniList, "search", "query must not be empty", nil)
	}
	vars := mediumVariables(medium)
	vars["search"] = query
	return c.fetch(ctx, "search", vars, medium)
}

// FetchByID returns the AniList media with the numeric id.
func (c *Client) FetchByID(ctx context.Context, id string, medium media.Medium) (*providers.Result, error) {
	numeric, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
	if err != nil || numeric <= 0 {
		return nil, services.Wrap(services.ErrValidation, providers.AniList, "fetch", fmt.Sprintf("invalid id %q", id), err)
	}
	vars := mediumVariables(medium)
	vars["id"] = numeric
	return c.fetch(ctx, "fetch", vars, medium)
}

// Synonyms implements providers.Provider.
func (c *Client) Synonyms(result *providers.Result) []string {
	return providers.DefaultSynonyms(result)
}

func (c *Client) fetch(ctx context.Context, operation string, vars map[string]any, medium media.Medium) (*providers.Result, error) {
	header := http.Header{}
	header.Set("Accept", "application/json")
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.fetcher.PostJSON(ctx, c.baseURL, graphQLRequest{Query: mediaQuery, Variables: vars}, header)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, c.fetcher.StatusError(operation, resp)
	}

	var payload graphQLResponse
	if err := c.fetcher.DecodeJSON(operation, resp, &payload); err != nil {
		return nil, err
	}
	if payload.Data.Media == nil {
		for _, gqlErr := range payload.Errors {
			if gqlErr.Status != 0 && gqlErr.Status != http.StatusNotFound {
				return nil, services.Wrap(services.ErrProviderUnavailable, providers.AniList, operation, gqlErr.Message, nil)
			}
		}
		return nil, nil
	}
	return convert(payload.Data.Media, medium), nil
}

func mediumVariables(medium media.Medium) map[string]any {
	vars := map[string]any{}
	switch medium {
	case media.Anime:
		vars["type"] = "ANIME"
	case media.Manga:
		vars["type"] = "MANGA"
		vars["formatNot"] = "NOVEL"
	case media.LightNovel:
		vars["type"] = "MANGA"
		vars["format"] = "NOVEL"
	}
	return vars
}

func convert(payload *mediaPayload, medium media.Medium) *providers.Result {
	result := &providers.Result{
		Provider:     providers.AniList,
		ID:           strconv.FormatInt(payload.ID, 10),
		Title:        strings.TrimSpace(payload.Title.Romaji),
		EnglishTitle: strings.TrimSpace(payload.Title.English),
		NativeTitle:  strings.TrimSpace(payload.Title.Native),
		Status:       strings.ToUpper(strings.TrimSpace(payload.Status)),
		Episodes:     deref(payload.Episodes),
		Chapters:     deref(payload.Chapters),
		Volumes:      deref(payload.Volumes),
		Genres:       providers.UniqueStrings(payload.Genres),
		Description:  strings.TrimSpace(payload.Description),
		CoverURL:     strings.TrimSpace(payload.CoverImage.Large),
		URL:          strings.TrimSpace(payload.SiteURL),
		Synonyms:     providers.UniqueStrings(payload.Synonyms),
	}
	if result.URL == "" && payload.ID > 0 {
		kind := "anime"
		if medium != media.Anime {
			kind = "manga"
		}
		result.URL = fmt.Sprintf("https://anilist.co/%s/%d", kind, payload.ID)
	}
	if next := payload.NextAiringEpisode; next != nil && next.TimeUntilAiring > 0 {
		wait := time.Duration(next.TimeUntilAiring) * time.Second
		result.NextAiringIn = &wait
	}
	return result
}

func deref(value *int) int {
	if value == nil || *value < 0 {
		return 0
	}
	return *value
}
