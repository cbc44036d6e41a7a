package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"tagscout/internal/media"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory, file and bind address configuration.
type Paths struct {
	DataDir       string `toml:"data_dir"`
	LogDir        string `toml:"log_dir"`
	OverridesPath string `toml:"overrides_path"`
	StatsDBPath   string `toml:"stats_db"`
	APIBind       string `toml:"api_bind"`
	APIToken      string `toml:"api_token"`
}

// Endpoint contains connection settings for one provider.
type Endpoint struct {
	BaseURL   string  `toml:"base_url"`
	RateLimit float64 `toml:"rate_limit"`
	Burst     int     `toml:"burst"`
	Token     string  `toml:"token"`
}

// Ranking lists the providers consulted for one medium. Primary providers
// drive the synonym round-robin in the listed order; auxiliary providers are
// queried only after a primary hit. The combined order is the merge rank.
type Ranking struct {
	Primary   []string `toml:"primary"`
	Auxiliary []string `toml:"auxiliary"`
}

// Providers contains provider endpoints and per-medium rankings.
type Providers struct {
	UserAgent      string   `toml:"user_agent"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
	AniList        Endpoint `toml:"anilist"`
	Kitsu          Endpoint `toml:"kitsu"`
	MAL            Endpoint `toml:"mal"`
	AnimePlanet    Endpoint `toml:"animeplanet"`
	AniDB          Endpoint `toml:"anidb"`
	MangaUpdates   Endpoint `toml:"mangaupdates"`
	NovelUpdates   Endpoint `toml:"novelupdates"`
	LNDB           Endpoint `toml:"lndb"`
	Anime          Ranking  `toml:"anime"`
	Manga          Ranking  `toml:"manga"`
	LightNovel     Ranking  `toml:"light_novel"`
}

// Resolution contains resolution engine limits.
type Resolution struct {
	RequestTimeoutSeconds  int `toml:"request_timeout_seconds"`
	ProviderTimeoutSeconds int `toml:"provider_timeout_seconds"`
	// MaxRounds caps the synonym round-robin. Zero means one round per
	// primary provider.
	MaxRounds         int `toml:"max_rounds"`
	MaxTagsPerMessage int `toml:"max_tags_per_message"`
}

// Gateway contains configuration for the WebSocket chat gateway.
type Gateway struct {
	Enabled        bool     `toml:"enabled"`
	HistorySize    int      `toml:"history_size"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
	// ComponentLevels raises or lowers the level for individual components,
	// keyed by the component attribute (e.g. "providers.anilist").
	ComponentLevels map[string]string `toml:"component_levels"`
}

// Config encapsulates all configuration values for tagscout.
//
// Configuration sections by subsystem:
//   - Paths: data, log and override locations plus the API bind address
//   - Providers: provider endpoints, rate limits and per-medium rankings
//   - Resolution: request and per-provider timeouts, round cap
//   - Gateway: WebSocket chat gateway
//   - Logging: log format, level, and retention
type Config struct {
	Paths      Paths      `toml:"paths"`
	Providers  Providers  `toml:"providers"`
	Resolution Resolution `toml:"resolution"`
	Gateway    Gateway    `toml:"gateway"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("tagscout.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.DataDir, c.Paths.LogDir}
	if c.Paths.StatsDBPath != "" {
		dirs = append(dirs, filepath.Dir(c.Paths.StatsDBPath))
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// Ranking returns the provider ranking for medium.
func (c *Config) Ranking(medium media.Medium) Ranking {
	switch medium {
	case media.Anime:
		return c.Providers.Anime
	case media.Manga:
		return c.Providers.Manga
	case media.LightNovel:
		return c.Providers.LightNovel
	default:
		return Ranking{}
	}
}

// Endpoint returns the endpoint settings for a provider ID.
func (c *Config) Endpoint(provider string) (Endpoint, bool) {
	switch provider {
	case "anilist":
		return c.Providers.AniList, true
	case "kitsu":
		return c.Providers.Kitsu, true
	case "mal":
		return c.Providers.MAL, true
	case "animeplanet":
		return c.Providers.AnimePlanet, true
	case "anidb":
		return c.Providers.AniDB, true
	case "mangaupdates":
		return c.Providers.MangaUpdates, true
	case "novelupdates":
		return c.Providers.NovelUpdates, true
	case "lndb":
		return c.Providers.LNDB, true
	default:
		return Endpoint{}, false
	}
}

// ProviderTimeout returns the per-call provider timeout.
func (c *Config) ProviderTimeout() time.Duration {
	return time.Duration(c.Resolution.ProviderTimeoutSeconds) * time.Second
}

// RequestTimeout returns the overall per-request resolution timeout.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Resolution.RequestTimeoutSeconds) * time.Second
}

// HTTPTimeout returns the HTTP client timeout used by provider fetchers.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.Providers.TimeoutSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// SampleConfig returns the embedded sample configuration.
func SampleConfig() string {
	return sampleConfig
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
