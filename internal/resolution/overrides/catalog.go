// Package overrides loads the operator-curated title overrides consulted
// before the synonym round-robin.
package overrides

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"tagscout/internal/logging"
	"tagscout/internal/media"
)

// Catalog loads user-authored overrides and reloads them when the file's
// modification time changes.
type Catalog struct {
	path    string
	logger  *slog.Logger
	mu      sync.RWMutex
	loaded  time.Time
	entries map[key]Override
}

// Override pins a set of names for one medium to provider identifiers.
type Override struct {
	Medium media.Medium      `yaml:"medium"`
	Names  []string          `yaml:"names"`
	IDs    map[string]string `yaml:"ids"`
}

// Providers lists the provider IDs in the override, sorted.
func (o Override) Providers() []string {
	ids := make([]string, 0, len(o.IDs))
	for id := range o.IDs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

type key struct {
	medium media.Medium
	name   string
}

// NewCatalog constructs a catalog backed by the provided YAML file. An empty
// path yields a nil catalog, which never matches.
func NewCatalog(path string, logger *slog.Logger) *Catalog {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Catalog{path: trimmed, logger: logger}
}

// Lookup returns the override registered for query under medium. Names are
// matched case-insensitively after whitespace collapse.
func (c *Catalog) Lookup(medium media.Medium, query string) (Override, bool, error) {
	if c == nil {
		return Override{}, false, nil
	}
	if err := c.ensureLoaded(); err != nil {
		return Override{}, false, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[key{medium: medium, name: normalizeName(query)}]
	return entry, ok, nil
}

// Refresh reads the file when it changed since the last load.
func (c *Catalog) Refresh() error {
	if c == nil {
		return nil
	}
	return c.ensureLoaded()
}

// Len reports how many names are currently indexed.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Catalog) ensureLoaded() error {
	info, err := os.Stat(c.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}

	c.mu.RLock()
	alreadyLoaded := !c.loaded.IsZero() && c.loaded.Equal(info.ModTime())
	c.mu.RUnlock()
	if alreadyLoaded {
		return nil
	}

	data, err := os.ReadFile(c.path)
	if err != nil {
		return err
	}
	entries, err := parseOverrides(data)
	if err != nil {
		return fmt.Errorf("parse overrides %s: %w", c.path, err)
	}
	index := make(map[key]Override, len(entries))
	for _, entry := range entries {
		for _, name := range entry.Names {
			index[key{medium: entry.Medium, name: name}] = entry
		}
	}

	c.mu.Lock()
	c.entries = index
	c.loaded = info.ModTime()
	c.mu.Unlock()
	c.logger.Info("loaded title overrides",
		logging.String("path", c.path),
		logging.Int("count", len(entries)),
		logging.String(logging.FieldEventType, "overrides_loaded"),
	)
	return nil
}

func parseOverrides(data []byte) ([]Override, error) {
	data = bytes.TrimPrefix(data, []byte("\xEF\xBB\xBF"))
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var entries []Override
	// Accept either a bare list or a document with an overrides field.
	var probe yaml.Node
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return nil, err
	}
	if len(probe.Content) == 0 {
		return nil, nil
	}
	if probe.Content[0].Kind == yaml.MappingNode {
		var wrapper struct {
			Overrides []Override `yaml:"overrides"`
		}
		if err := probe.Decode(&wrapper); err != nil {
			return nil, err
		}
		entries = wrapper.Overrides
	} else if err := probe.Decode(&entries); err != nil {
		return nil, err
	}

	normalized := make([]Override, 0, len(entries))
	for idx, entry := range entries {
		if err := entry.normalize(); err != nil {
			return nil, fmt.Errorf("override %d: %w", idx+1, err)
		}
		normalized = append(normalized, entry)
	}
	return normalized, nil
}

func (o *Override) normalize() error {
	medium, err := media.ParseMedium(string(o.Medium))
	if err != nil {
		return err
	}
	o.Medium = medium

	names := make([]string, 0, len(o.Names))
	for _, name := range o.Names {
		if cleaned := normalizeName(name); cleaned != "" {
			names = append(names, cleaned)
		}
	}
	if len(names) == 0 {
		return errors.New("at least one name required")
	}
	o.Names = names

	ids := make(map[string]string, len(o.IDs))
	for provider, id := range o.IDs {
		provider = strings.ToLower(strings.TrimSpace(provider))
		id = strings.TrimSpace(id)
		if provider == "" || id == "" {
			continue
		}
		ids[provider] = id
	}
	if len(ids) == 0 {
		return errors.New("at least one provider id required")
	}
	o.IDs = ids
	return nil
}

func normalizeName(value string) string {
	return strings.ToLower(strings.Join(strings.Fields(value), " "))
}
