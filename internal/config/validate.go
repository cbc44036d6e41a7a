package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"tagscout/internal/media"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateEndpoints(); err != nil {
		return err
	}
	if err := c.validateRankings(); err != nil {
		return err
	}
	if err := c.validateResolution(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir must be set")
	}
	if strings.TrimSpace(c.Paths.APIBind) == "" {
		return errors.New("paths.api_bind must be set")
	}
	return nil
}

func (c *Config) validateEndpoints() error {
	for id := range knownProviders {
		endpoint, _ := c.Endpoint(id)
		parsed, err := url.Parse(endpoint.BaseURL)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("providers.%s.base_url must be an absolute URL, got %q", id, endpoint.BaseURL)
		}
	}
	return nil
}

func (c *Config) validateRankings() error {
	for _, medium := range media.All() {
		ranking := c.Ranking(medium)
		section := "providers." + string(medium)
		if len(ranking.Primary) == 0 {
			return fmt.Errorf("%s.primary must list at least one provider", section)
		}
		seen := make(map[string]struct{}, len(ranking.Primary)+len(ranking.Auxiliary))
		for _, group := range []struct {
			key string
			ids []string
		}{{"primary", ranking.Primary}, {"auxiliary", ranking.Auxiliary}} {
			for _, id := range group.ids {
				if _, ok := knownProviders[id]; !ok {
					return fmt.Errorf("%s.%s: unknown provider %q", section, group.key, id)
				}
				if _, dup := seen[id]; dup {
					return fmt.Errorf("%s: provider %q listed more than once", section, id)
				}
				seen[id] = struct{}{}
			}
		}
	}
	return nil
}

func (c *Config) validateResolution() error {
	if err := ensurePositiveMap(map[string]int{
		"resolution.request_timeout_seconds":  c.Resolution.RequestTimeoutSeconds,
		"resolution.provider_timeout_seconds": c.Resolution.ProviderTimeoutSeconds,
		"resolution.max_tags_per_message":     c.Resolution.MaxTagsPerMessage,
		"providers.timeout_seconds":           c.Providers.TimeoutSeconds,
	}); err != nil {
		return err
	}
	if c.Resolution.ProviderTimeoutSeconds > c.Resolution.RequestTimeoutSeconds {
		return errors.New("resolution.provider_timeout_seconds must not exceed resolution.request_timeout_seconds")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !validLogLevel(c.Logging.Level) {
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	for component, level := range c.Logging.ComponentLevels {
		if !validLogLevel(level) {
			return fmt.Errorf("logging.component_levels.%s: unsupported value %q", component, level)
		}
	}
	return nil
}

func validLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
