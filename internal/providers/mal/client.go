// Package mal adapts MyAnimeList data through the Jikan v4 REST API.
package mal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"tagscout/internal/media"
	"tagscout/internal/providers"
	"tagscout/internal/services"
)

// DefaultBaseURL is the public Jikan endpoint.
const DefaultBaseURL = "https://api.jikan.moe/v4"

type entry struct {
	MalID         int64    `json:"mal_id"`
	URL           string   `json:"url"`
	Title         string   `json:"title"`
	TitleEnglish  string   `json:"title_english"`
	TitleJapanese string   `json:"title_japanese"`
	TitleSynonyms []string `json:"title_synonyms"`
	Type          string   `json:"type"`
	Status        string   `json:"status"`
	Episodes      *int     `json:"episodes"`
	Chapters      *int     `json:"chapters"`
	Volumes       *int     `json:"volumes"`
	Synopsis      string   `json:"synopsis"`
	Genres        []named  `json:"genres"`
	Images        struct {
		JPG struct {
			ImageURL      string `json:"image_url"`
			LargeImageURL string `json:"large_image_url"`
		} `json:"jpg"`
	} `json:"images"`
}

type named struct {
	Name string `json:"name"`
}

type searchResponse struct {
	Data []entry `json:"data"`
}

type detailResponse struct {
	Data *entry `json:"data"`
}

// Client queries Jikan.
type Client struct {
	baseURL string
	fetcher *providers.Fetcher
}

var _ providers.Provider = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithFetcher overrides the default fetcher.
func WithFetcher(fetcher *providers.Fetcher) Option {
	return func(c *Client) {
		if fetcher != nil {
			c.fetcher = fetcher
		}
	}
}

// New creates a Jikan client. Jikan allows three requests per second, which
// the default fetcher enforces.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("jikan base url required")
	}
	client := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		fetcher: providers.NewFetcher(providers.MAL, providers.FetcherOptions{RateLimit: 3, Burst: 3}),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// ID implements providers.Provider.
func (c *Client) ID() string { return providers.MAL }

// Supports implements providers.Provider.
func (c *Client) Supports(medium media.Medium) bool { return medium.Valid() }

// Search returns the first MyAnimeList match for query.
func (c *Client) Search(ctx context.Context, query string, medium media.Medium) (*providers.Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, services.Wrap(services.ErrValidation, providers.MAL, "search", "query must not be empty", nil)
	}
	endpoint, err := url.Parse(c.baseURL + "/" + resourceType(medium))
	if err != nil {
		return nil, fmt.Errorf("parse jikan url: %w", err)
	}
	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", "3")
	if medium == media.LightNovel {
		params.Set("type", "lightnovel")
	}
	endpoint.RawQuery = params.Encode()

	resp, err := c.fetcher.Get(ctx, endpoint.String(), nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, c.fetcher.StatusError("search", resp)
	}
	var payload searchResponse
	if err := c.fetcher.DecodeJSON("search", resp, &payload); err != nil {
		return nil, err
	}
	for _, item := range payload.Data {
		if medium == media.Manga && isNovel(item.Type) {
			continue
		}
		return convert(item), nil
	}
	return nil, nil
}

// FetchByID returns the MyAnimeList entry with id.
func (c *Client) FetchByID(ctx context.Context, id string, medium media.Medium) (*providers.Result, error) {
	numeric, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
	if err != nil || numeric <= 0 {
		return nil, services.Wrap(services.ErrValidation, providers.MAL, "fetch", fmt.Sprintf("invalid id %q", id), err)
	}
	endpoint := fmt.Sprintf("%s/%s/%d", c.baseURL, resourceType(medium), numeric)
	resp, err := c.fetcher.Get(ctx, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, c.fetcher.StatusError("fetch", resp)
	}
	var payload detailResponse
	if err := c.fetcher.DecodeJSON("fetch", resp, &payload); err != nil {
		return nil, err
	}
	if payload.Data == nil {
		return nil, nil
	}
	return convert(*payload.Data), nil
}

// Synonyms implements providers.Provider.
func (c *Client) Synonyms(result *providers.Result) []string {
	return providers.DefaultSynonyms(result)
}

func resourceType(medium media.Medium) string {
	if medium == media.Anime {
		return "anime"
	}
	return "manga"
}

func isNovel(kind string) bool {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(kind), " ", "")) {
	case "novel", "lightnovel":
		return true
	default:
		return false
	}
}

func convert(item entry) *providers.Result {
	genres := make([]string, 0, len(item.Genres))
	for _, g := range item.Genres {
		genres = append(genres, g.Name)
	}
	cover := item.Images.JPG.LargeImageURL
	if cover == "" {
		cover = item.Images.JPG.ImageURL
	}
	return &providers.Result{
		Provider:     providers.MAL,
		ID:           strconv.FormatInt(item.MalID, 10),
		Title:        strings.TrimSpace(item.Title),
		EnglishTitle: strings.TrimSpace(item.TitleEnglish),
		NativeTitle:  strings.TrimSpace(item.TitleJapanese),
		Status:       normalizeStatus(item.Status),
		Episodes:     deref(item.Episodes),
		Chapters:     deref(item.Chapters),
		Volumes:      deref(item.Volumes),
		Genres:       providers.UniqueStrings(genres),
		Description:  strings.TrimSpace(item.Synopsis),
		CoverURL:     strings.TrimSpace(cover),
		URL:          strings.TrimSpace(item.URL),
		Synonyms:     providers.UniqueStrings(item.TitleSynonyms),
	}
}

func normalizeStatus(status string) string {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "finished airing", "finished":
		return providers.StatusFinished
	case "currently airing", "publishing":
		return providers.StatusReleasing
	case "not yet aired", "not yet published":
		return providers.StatusNotYetReleased
	case "on hiatus":
		return providers.StatusHiatus
	case "discontinued":
		return providers.StatusCancelled
	case "":
		return ""
	default:
		return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(status), " ", "_"))
	}
}

func deref(value *int) int {
	if value == nil || *value < 0 {
		return 0
	}
	return *value
}
