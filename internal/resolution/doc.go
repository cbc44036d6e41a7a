// Package resolution turns one search request into a merged entity by
// driving the configured providers through the synonym round-robin.
//
// Each medium has an ordered primary set and an auxiliary set. Primaries are
// queried concurrently round by round; every hit contributes its synonyms to
// a shared pool that later rounds try against the providers still missing.
// The loop stops at a fixed point or after one round per primary.
// Auxiliaries are consulted only after a primary hit. The override catalog,
// when it knows the query, replaces the search with direct ID lookups.
package resolution
