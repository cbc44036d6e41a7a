// Package kitsu adapts the Kitsu JSON:API.
package kitsu

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"tagscout/internal/media"
	"tagscout/internal/providers"
	"tagscout/internal/services"
)

// DefaultBaseURL is the public Kitsu API root.
const DefaultBaseURL = "https://kitsu.io/api/edge"

const siteURL = "https://kitsu.app"

type resource struct {
	ID         string     `json:"id"`
	Type       string     `json:"type"`
	Attributes attributes `json:"attributes"`
}

type attributes struct {
	Slug              string            `json:"slug"`
	CanonicalTitle    string            `json:"canonicalTitle"`
	Titles            map[string]string `json:"titles"`
	AbbreviatedTitles []string          `json:"abbreviatedTitles"`
	Synopsis          string            `json:"synopsis"`
	Status            string            `json:"status"`
	Subtype           string            `json:"subtype"`
	EpisodeCount      *int              `json:"episodeCount"`
	ChapterCount      *int              `json:"chapterCount"`
	VolumeCount       *int              `json:"volumeCount"`
	PosterImage       *image            `json:"posterImage"`
}

type image struct {
	Original string `json:"original"`
	Large    string `json:"large"`
}

type listResponse struct {
	Data []resource `json:"data"`
}

type singleResponse struct {
	Data *resource `json:"data"`
}

// Client queries Kitsu.
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

// New creates a Kitsu client.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("kitsu base url required")
	}
	client := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		fetcher: providers.NewFetcher(providers.Kitsu, providers.FetcherOptions{}),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// ID implements providers.Provider.
func (c *Client) ID() string { return providers.Kitsu }

// Supports implements providers.Provider.
func (c *Client) Supports(medium media.Medium) bool { return medium.Valid() }

// Search returns the first Kitsu match for query.
func (c *Client) Search(ctx context.Context, query string, medium media.Medium) (*providers.Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, services.Wrap(services.ErrValidation, providers.Kitsu, "search", "query must not be empty", nil)
	}
	endpoint, err := url.Parse(c.baseURL + "/" + resourceType(medium))
	if err != nil {
		return nil, fmt.Errorf("parse kitsu url: %w", err)
	}
	params := url.Values{}
	params.Set("filter[text]", query)
	params.Set("page[limit]", "1")
	if medium == media.LightNovel {
		params.Set("filter[subtype]", "novel")
	}
	endpoint.RawQuery = params.Encode()

	resp, err := c.fetcher.Get(ctx, endpoint.String(), jsonAPIHeader())
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, c.fetcher.StatusError("search", resp)
	}
	var payload listResponse
	if err := c.fetcher.DecodeJSON("search", resp, &payload); err != nil {
		return nil, err
	}
	for _, item := range payload.Data {
		if medium == media.Manga && strings.EqualFold(item.Attributes.Subtype, "novel") {
			continue
		}
		return convert(item, medium), nil
	}
	return nil, nil
}

// FetchByID returns the Kitsu resource with id.
func (c *Client) FetchByID(ctx context.Context, id string, medium media.Medium) (*providers.Result, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, services.Wrap(services.ErrValidation, providers.Kitsu, "fetch", "id must not be empty", nil)
	}
	endpoint := fmt.Sprintf("%s/%s/%s", c.baseURL, resourceType(medium), url.PathEscape(id))
	resp, err := c.fetcher.Get(ctx, endpoint, jsonAPIHeader())
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, c.fetcher.StatusError("fetch", resp)
	}
	var payload singleResponse
	if err := c.fetcher.DecodeJSON("fetch", resp, &payload); err != nil {
		return nil, err
	}
	if payload.Data == nil {
		return nil, nil
	}
	return convert(*payload.Data, medium), nil
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

func jsonAPIHeader() http.Header {
	header := http.Header{}
	header.Set("Accept", "application/vnd.api+json")
	return header
}

func convert(item resource, medium media.Medium) *providers.Result {
	attrs := item.Attributes
	result := &providers.Result{
		Provider:     providers.Kitsu,
		ID:           item.ID,
		Title:        strings.TrimSpace(attrs.CanonicalTitle),
		EnglishTitle: strings.TrimSpace(firstNonEmpty(attrs.Titles["en"], attrs.Titles["en_us"])),
		NativeTitle:  strings.TrimSpace(attrs.Titles["ja_jp"]),
		Status:       normalizeStatus(attrs.Status),
		Episodes:     deref(attrs.EpisodeCount),
		Chapters:     deref(attrs.ChapterCount),
		Volumes:      deref(attrs.VolumeCount),
		Description:  strings.TrimSpace(attrs.Synopsis),
	}
	if attrs.PosterImage != nil {
		result.CoverURL = firstNonEmpty(attrs.PosterImage.Large, attrs.PosterImage.Original)
	}
	if slug := strings.TrimSpace(attrs.Slug); slug != "" {
		result.URL = fmt.Sprintf("%s/%s/%s", siteURL, resourceType(medium), slug)
	} else if item.ID != "" {
		result.URL = fmt.Sprintf("%s/%s/%s", siteURL, resourceType(medium), item.ID)
	}
	synonyms := make([]string, 0, len(attrs.Titles)+len(attrs.AbbreviatedTitles))
	synonyms = append(synonyms, attrs.Titles["en_jp"])
	synonyms = append(synonyms, attrs.AbbreviatedTitles...)
	result.Synonyms = providers.UniqueStrings(synonyms)
	return result
}

func normalizeStatus(status string) string {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "finished":
		return providers.StatusFinished
	case "current":
		return providers.StatusReleasing
	case "tba", "unreleased", "upcoming":
		return providers.StatusNotYetReleased
	default:
		return strings.ToUpper(strings.TrimSpace(status))
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func deref(value *int) int {
	if value == nil || *value < 0 {
		return 0
	}
	return *value
}
