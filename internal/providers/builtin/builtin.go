// Package builtin wires the bundled provider adapters from configuration.
package builtin

import (
	"fmt"
	"log/slog"
	"net/http"

	"tagscout/internal/config"
	"tagscout/internal/logging"
	"tagscout/internal/providers"
	"tagscout/internal/providers/anilist"
	"tagscout/internal/providers/kitsu"
	"tagscout/internal/providers/linksearch"
	"tagscout/internal/providers/mal"
)

// Option configures registry construction.
type Option func(*options)

type options struct {
	httpClient *http.Client
}

// WithHTTPClient shares one HTTP client across every fetcher.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// NewRegistry builds a registry holding every bundled adapter configured
// with its endpoint, rate limit and the shared user agent.
func NewRegistry(cfg *config.Config, logger *slog.Logger, opts ...Option) (*providers.Registry, error) {
	if cfg == nil {
		return nil, fmt.Errorf("builtin providers: config required")
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	fetcher := func(id string) *providers.Fetcher {
		endpoint, _ := cfg.Endpoint(id)
		return providers.NewFetcher(id, providers.FetcherOptions{
			HTTPClient: o.httpClient,
			RateLimit:  endpoint.RateLimit,
			Burst:      endpoint.Burst,
			UserAgent:  cfg.Providers.UserAgent,
			Timeout:    cfg.HTTPTimeout(),
			Logger:     logging.ForComponent(logger, "providers."+id, cfg.Logging.ComponentLevels),
		})
	}

	registry := providers.NewRegistry()

	aniClient, err := anilist.New(cfg.Providers.AniList.BaseURL,
		anilist.WithToken(cfg.Providers.AniList.Token),
		anilist.WithFetcher(fetcher(providers.AniList)),
	)
	if err != nil {
		return nil, err
	}
	registry.Register(aniClient)

	kitsuClient, err := kitsu.New(cfg.Providers.Kitsu.BaseURL, kitsu.WithFetcher(fetcher(providers.Kitsu)))
	if err != nil {
		return nil, err
	}
	registry.Register(kitsuClient)

	malClient, err := mal.New(cfg.Providers.MAL.BaseURL, mal.WithFetcher(fetcher(providers.MAL)))
	if err != nil {
		return nil, err
	}
	registry.Register(malClient)

	sites := []linksearch.Site{
		linksearch.AnimePlanet(cfg.Providers.AnimePlanet.BaseURL),
		linksearch.AniDB(cfg.Providers.AniDB.BaseURL),
		linksearch.MangaUpdates(cfg.Providers.MangaUpdates.BaseURL),
		linksearch.NovelUpdates(cfg.Providers.NovelUpdates.BaseURL),
		linksearch.LNDB(cfg.Providers.LNDB.BaseURL),
	}
	for _, site := range sites {
		client, err := linksearch.New(site, linksearch.WithFetcher(fetcher(site.ID)))
		if err != nil {
			return nil, err
		}
		registry.Register(client)
	}
	return registry, nil
}
