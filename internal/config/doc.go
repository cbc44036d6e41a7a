// Package config loads, normalizes, and validates tagscout configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// TAGSCOUT_API_TOKEN and ANILIST_TOKEN. The Config type centralizes the
// provider endpoints, per-medium provider rankings, resolution timeouts and
// daemon settings the CLI and daemon need.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
