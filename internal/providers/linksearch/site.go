package linksearch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"tagscout/internal/media"
	"tagscout/internal/providers"
	"tagscout/internal/services"
)

// Site describes how to search one website.
type Site struct {
	ID      string
	BaseURL string
	// SearchPaths holds a path and query template per medium with a single
	// %s verb for the escaped query.
	SearchPaths map[media.Medium]string
	// TitlePaths holds a path template per medium with a %s verb for a site
	// identifier, used by override catalogs.
	TitlePaths map[media.Medium]string
	// TitlePage matches the path of a title page the search redirected to.
	TitlePage *regexp.Regexp
	// ResultLink finds the first title link on a result page. The first
	// submatch must hold the href.
	ResultLink *regexp.Regexp
}

// Client adapts a Site to the provider contract.
type Client struct {
	site    Site
	base    *url.URL
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

// New creates a client for site.
func New(site Site, opts ...Option) (*Client, error) {
	if strings.TrimSpace(site.ID) == "" {
		return nil, errors.New("site id required")
	}
	base, err := url.Parse(strings.TrimRight(strings.TrimSpace(site.BaseURL), "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%s: invalid base url %q", site.ID, site.BaseURL)
	}
	if len(site.SearchPaths) == 0 {
		return nil, fmt.Errorf("%s: at least one search path required", site.ID)
	}
	client := &Client{
		site:    site,
		base:    base,
		fetcher: providers.NewFetcher(site.ID, providers.FetcherOptions{}),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// ID implements providers.Provider.
func (c *Client) ID() string { return c.site.ID }

// Supports implements providers.Provider.
func (c *Client) Supports(medium media.Medium) bool {
	_, ok := c.site.SearchPaths[medium]
	return ok
}

// Search implements providers.Provider.
func (c *Client) Search(ctx context.Context, query string, medium media.Medium) (*providers.Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, services.Wrap(services.ErrValidation, c.site.ID, "search", "query must not be empty", nil)
	}
	template, ok := c.site.SearchPaths[medium]
	if !ok {
		return nil, nil
	}
	searchPath := fmt.Sprintf(template, url.QueryEscape(query))
	endpoint, err := c.base.Parse(c.base.Path + searchPath)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, c.site.ID, "search", "build url", err)
	}

	header := http.Header{}
	header.Set("Accept", "text/html,application/xhtml+xml")
	resp, err := c.fetcher.Get(ctx, endpoint.String(), header)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, c.fetcher.StatusError("search", resp)
	}

	final, err := url.Parse(resp.FinalURL)
	if err != nil {
		final = endpoint
	}
	if c.isTitlePage(final, endpoint) {
		return c.result(final), nil
	}
	if c.site.ResultLink == nil {
		return nil, nil
	}
	match := c.site.ResultLink.FindSubmatch(resp.Body)
	if len(match) < 2 {
		return nil, nil
	}
	link, err := final.Parse(string(match[1]))
	if err != nil {
		return nil, nil
	}
	return c.result(link), nil
}

// FetchByID builds the title link for a site identifier without a network
// call.
func (c *Client) FetchByID(_ context.Context, id string, medium media.Medium) (*providers.Result, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, services.Wrap(services.ErrValidation, c.site.ID, "fetch", "id must not be empty", nil)
	}
	template, ok := c.site.TitlePaths[medium]
	if !ok {
		return nil, nil
	}
	link, err := c.base.Parse(c.base.Path + fmt.Sprintf(template, url.PathEscape(id)))
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, c.site.ID, "fetch", "build url", err)
	}
	result := c.result(link)
	result.ID = id
	return result, nil
}

// Synonyms implements providers.Provider. Link-only sites have none.
func (c *Client) Synonyms(*providers.Result) []string { return nil }

func (c *Client) isTitlePage(final, search *url.URL) bool {
	if c.site.TitlePage == nil {
		return false
	}
	if strings.TrimRight(final.Path, "/") == strings.TrimRight(search.Path, "/") {
		return false
	}
	return c.site.TitlePage.MatchString(final.Path)
}

func (c *Client) result(link *url.URL) *providers.Result {
	clean := *link
	clean.Fragment = ""
	return &providers.Result{Provider: c.site.ID, URL: clean.String()}
}
