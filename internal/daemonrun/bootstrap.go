package daemonrun

import (
	"fmt"
	"log/slog"

	"tagscout/internal/config"
	"tagscout/internal/logging"
	"tagscout/internal/providers"
	"tagscout/internal/providers/builtin"
	"tagscout/internal/resolution"
	"tagscout/internal/resolution/overrides"
)

// Components is the lookup stack shared by the daemon and one-shot CLI
// commands.
type Components struct {
	Registry *providers.Registry
	Catalog  *overrides.Catalog
	Engine   *resolution.Engine
}

// Bootstrap builds the provider registry, the override catalog and the
// resolution engine from cfg. opts are passed to the registry builder.
func Bootstrap(cfg *config.Config, logger *slog.Logger, opts ...builtin.Option) (*Components, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	levels := cfg.Logging.ComponentLevels

	registry, err := builtin.NewRegistry(cfg, logger, opts...)
	if err != nil {
		return nil, fmt.Errorf("build provider registry: %w", err)
	}
	catalog := overrides.NewCatalog(cfg.Paths.OverridesPath, logging.ForComponent(logger, "overrides", levels))
	if err := catalog.Refresh(); err != nil {
		logging.WarnWithContext(logger, "override catalog unreadable at startup", "overrides_unreadable",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "fix the YAML in paths.overrides_path"),
			logging.String(logging.FieldImpact, "overrides ignored until the file parses"),
		)
	}

	var engineOpts []resolution.Option
	if catalog != nil {
		engineOpts = append(engineOpts, resolution.WithOverrides(catalog))
	}
	engine, err := resolution.New(cfg, registry, logging.ForComponent(logger, "resolution", levels), engineOpts...)
	if err != nil {
		return nil, fmt.Errorf("build resolution engine: %w", err)
	}
	return &Components{Registry: registry, Catalog: catalog, Engine: engine}, nil
}
