// Package providers defines the adapter contract every external metadata
// source implements, along with the shared HTTP plumbing they use.
//
// Adapters convert each source's schema into a Result and report failures as
// errors tagged with services.ErrProviderUnavailable. A nil Result with a nil
// error means the source had no match. The Fetcher applies a per-provider
// rate limit, retries once on transport errors, and records Prometheus
// metrics for every call.
package providers
