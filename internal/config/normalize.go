package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeProviders()
	c.normalizeResolution()
	c.normalizeGateway()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = filepath.Join(c.Paths.DataDir, "logs")
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.OverridesPath, err = expandPath(strings.TrimSpace(c.Paths.OverridesPath)); err != nil {
		return fmt.Errorf("paths.overrides_path: %w", err)
	}
	if strings.TrimSpace(c.Paths.StatsDBPath) == "" {
		c.Paths.StatsDBPath = filepath.Join(c.Paths.DataDir, defaultStatsDBName)
	}
	if c.Paths.StatsDBPath, err = expandPath(c.Paths.StatsDBPath); err != nil {
		return fmt.Errorf("paths.stats_db: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	if c.Paths.APIToken == "" {
		if value, ok := os.LookupEnv("TAGSCOUT_API_TOKEN"); ok {
			c.Paths.APIToken = strings.TrimSpace(value)
		}
	}
	return nil
}

func (c *Config) normalizeProviders() {
	p := &c.Providers
	p.UserAgent = strings.TrimSpace(p.UserAgent)
	if p.UserAgent == "" {
		p.UserAgent = defaultUserAgent
	}
	if p.TimeoutSeconds <= 0 {
		p.TimeoutSeconds = defaultHTTPTimeoutSeconds
	}

	normalizeEndpoint(&p.AniList, defaultAniListBaseURL)
	normalizeEndpoint(&p.Kitsu, defaultKitsuBaseURL)
	normalizeEndpoint(&p.MAL, defaultJikanBaseURL)
	normalizeEndpoint(&p.AnimePlanet, defaultAnimePlanetBaseURL)
	normalizeEndpoint(&p.AniDB, defaultAniDBBaseURL)
	normalizeEndpoint(&p.MangaUpdates, defaultMangaUpdatesBaseURL)
	normalizeEndpoint(&p.NovelUpdates, defaultNovelUpdatesBaseURL)
	normalizeEndpoint(&p.LNDB, defaultLNDBBaseURL)
	if p.AniList.Token == "" {
		if value, ok := os.LookupEnv("ANILIST_TOKEN"); ok {
			p.AniList.Token = strings.TrimSpace(value)
		}
	}

	normalizeRanking(&p.Anime)
	normalizeRanking(&p.Manga)
	normalizeRanking(&p.LightNovel)
}

func normalizeEndpoint(e *Endpoint, fallback string) {
	e.BaseURL = strings.TrimRight(strings.TrimSpace(e.BaseURL), "/")
	if e.BaseURL == "" {
		e.BaseURL = fallback
	}
	e.Token = strings.TrimSpace(e.Token)
	if e.RateLimit < 0 {
		e.RateLimit = 0
	}
	if e.Burst <= 0 {
		e.Burst = 1
	}
}

func normalizeRanking(r *Ranking) {
	r.Primary = normalizeIDs(r.Primary)
	r.Auxiliary = normalizeIDs(r.Auxiliary)
}

func normalizeIDs(ids []string) []string {
	if len(ids) == 0 {
		return ids
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		trimmed := strings.ToLower(strings.TrimSpace(id))
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}

func (c *Config) normalizeResolution() {
	if c.Resolution.RequestTimeoutSeconds <= 0 {
		c.Resolution.RequestTimeoutSeconds = defaultRequestTimeoutSeconds
	}
	if c.Resolution.ProviderTimeoutSeconds <= 0 {
		c.Resolution.ProviderTimeoutSeconds = defaultProviderTimeoutSeconds
	}
	if c.Resolution.MaxRounds < 0 {
		c.Resolution.MaxRounds = 0
	}
	if c.Resolution.MaxTagsPerMessage <= 0 {
		c.Resolution.MaxTagsPerMessage = defaultMaxTagsPerMessage
	}
}

func (c *Config) normalizeGateway() {
	if c.Gateway.HistorySize < 0 {
		c.Gateway.HistorySize = 0
	}
	origins := make([]string, 0, len(c.Gateway.AllowedOrigins))
	for _, origin := range c.Gateway.AllowedOrigins {
		if trimmed := strings.TrimRight(strings.TrimSpace(origin), "/"); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	c.Gateway.AllowedOrigins = origins
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
	if len(c.Logging.ComponentLevels) > 0 {
		levels := make(map[string]string, len(c.Logging.ComponentLevels))
		for component, level := range c.Logging.ComponentLevels {
			component = strings.ToLower(strings.TrimSpace(component))
			if component == "" {
				continue
			}
			levels[component] = strings.ToLower(strings.TrimSpace(level))
		}
		c.Logging.ComponentLevels = levels
	}
}
