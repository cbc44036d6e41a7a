package testsupport

import (
	"path/filepath"
	"testing"

	"tagscout/internal/config"
	"tagscout/internal/media"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.OverridesPath = filepath.Join(base, "overrides.yaml")
	cfgVal.Paths.StatsDBPath = filepath.Join(base, "data", "stats.db")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.Providers.UserAgent = "tagscout/test"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithRanking replaces the provider ranking for one medium.
func WithRanking(medium media.Medium, primary, auxiliary []string) ConfigOption {
	return func(b *configBuilder) {
		ranking := config.Ranking{Primary: primary, Auxiliary: auxiliary}
		switch medium {
		case media.Anime:
			b.cfg.Providers.Anime = ranking
		case media.Manga:
			b.cfg.Providers.Manga = ranking
		case media.LightNovel:
			b.cfg.Providers.LightNovel = ranking
		default:
			b.t.Fatalf("unknown medium %q", medium)
		}
	}
}

// WithTimeouts sets the request and per-provider timeouts in seconds.
func WithTimeouts(requestSeconds, providerSeconds int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Resolution.RequestTimeoutSeconds = requestSeconds
		b.cfg.Resolution.ProviderTimeoutSeconds = providerSeconds
	}
}

// WithAPIToken sets the bearer token the API requires.
func WithAPIToken(token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.APIToken = token
	}
}
