package config

const (
	defaultConfigPath             = "~/.config/tagscout/config.toml"
	defaultDataDir                = "~/.local/share/tagscout"
	defaultLogDir                 = "~/.local/share/tagscout/logs"
	defaultOverridesPath          = "~/.config/tagscout/overrides.yaml"
	defaultStatsDBName            = "stats.db"
	defaultAPIBind                = "127.0.0.1:7488"
	defaultUserAgent              = "tagscout/dev"
	defaultHTTPTimeoutSeconds     = 8
	defaultRequestTimeoutSeconds  = 20
	defaultProviderTimeoutSeconds = 10
	defaultMaxTagsPerMessage      = 8
	defaultGatewayHistorySize     = 50
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
	defaultLogRetentionDays       = 30

	defaultAniListBaseURL      = "https://graphql.anilist.co"
	defaultKitsuBaseURL        = "https://kitsu.io/api/edge"
	defaultJikanBaseURL        = "https://api.jikan.moe/v4"
	defaultAnimePlanetBaseURL  = "https://www.anime-planet.com"
	defaultAniDBBaseURL        = "https://anidb.net"
	defaultMangaUpdatesBaseURL = "https://www.mangaupdates.com"
	defaultNovelUpdatesBaseURL = "https://www.novelupdates.com"
	defaultLNDBBaseURL         = "https://lndb.info"
)

// knownProviders lists every provider ID an adapter exists for.
var knownProviders = map[string]struct{}{
	"anilist":      {},
	"kitsu":        {},
	"mal":          {},
	"animeplanet":  {},
	"anidb":        {},
	"mangaupdates": {},
	"novelupdates": {},
	"lndb":         {},
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:       defaultDataDir,
			LogDir:        defaultLogDir,
			OverridesPath: defaultOverridesPath,
			APIBind:       defaultAPIBind,
		},
		Providers: Providers{
			UserAgent:      defaultUserAgent,
			TimeoutSeconds: defaultHTTPTimeoutSeconds,
			AniList:        Endpoint{BaseURL: defaultAniListBaseURL, RateLimit: 1.5, Burst: 5},
			Kitsu:          Endpoint{BaseURL: defaultKitsuBaseURL, RateLimit: 5, Burst: 5},
			MAL:            Endpoint{BaseURL: defaultJikanBaseURL, RateLimit: 3, Burst: 3},
			AnimePlanet:    Endpoint{BaseURL: defaultAnimePlanetBaseURL, RateLimit: 1, Burst: 2},
			AniDB:          Endpoint{BaseURL: defaultAniDBBaseURL, RateLimit: 0.5, Burst: 1},
			MangaUpdates:   Endpoint{BaseURL: defaultMangaUpdatesBaseURL, RateLimit: 1, Burst: 2},
			NovelUpdates:   Endpoint{BaseURL: defaultNovelUpdatesBaseURL, RateLimit: 1, Burst: 2},
			LNDB:           Endpoint{BaseURL: defaultLNDBBaseURL, RateLimit: 1, Burst: 2},
			Anime: Ranking{
				Primary:   []string{"anilist", "kitsu", "mal"},
				Auxiliary: []string{"animeplanet", "anidb"},
			},
			Manga: Ranking{
				Primary:   []string{"anilist", "mal", "kitsu"},
				Auxiliary: []string{"mangaupdates", "animeplanet"},
			},
			LightNovel: Ranking{
				Primary:   []string{"anilist", "mal"},
				Auxiliary: []string{"novelupdates", "lndb"},
			},
		},
		Resolution: Resolution{
			RequestTimeoutSeconds:  defaultRequestTimeoutSeconds,
			ProviderTimeoutSeconds: defaultProviderTimeoutSeconds,
			MaxTagsPerMessage:      defaultMaxTagsPerMessage,
		},
		Gateway: Gateway{
			Enabled:     true,
			HistorySize: defaultGatewayHistorySize,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
