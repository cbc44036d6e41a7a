// Package api defines the wire-format types of the daemon's HTTP API and a
// typed client for it.
//
// The daemon serves these types and the CLI consumes them through Client, so
// both sides share one definition of every payload. Structured values from
// the pipeline and stats packages are embedded as they are; timestamps use
// RFC3339 with milliseconds.
package api
