// Package daemon coordinates the long-running tagscout process.
//
// It wires the stats store, the message processor and the optional chat
// gateway behind one HTTP server with flock-based locking to prevent
// multiple instances. The API answers chat messages, serves user and server
// statistics, reports status and exposes Prometheus metrics; a background
// loop forgets handled message IDs once they age out of the de-duplication
// window.
//
// Keep orchestration logic here: tag handling lives in the pipeline and
// below, while the daemon focuses on startup, shutdown and transport.
package daemon
