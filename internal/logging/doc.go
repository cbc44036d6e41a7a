// Package logging assembles the structured slog loggers used across tagscout.
//
// It owns the console and JSON handlers, the JSON log file tee, per-component
// level overrides and log retention. WithContext tags lines with the
// correlation, message, medium and provider identifiers carried on the
// context so a single lookup can be followed across provider calls.
package logging
