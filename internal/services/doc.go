// Package services defines shared utilities consumed by the resolution core
// and the plumbing around it.
//
// Key responsibilities:
//   - Context helpers that stamp request, message, medium, and provider
//     identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper so provider failures,
//     not-found outcomes, and timeouts can be classified with errors.Is.
//
// Use these helpers when wiring new adapters so failure handling and
// observability stay uniform across providers.
package services
