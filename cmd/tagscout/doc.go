// Command tagscout is the operator CLI for the tagscout bot.
//
// One-shot commands (lookup, extract, config) run in-process against the
// configured providers. Daemon commands (status, send, stats) talk to a
// running tagscoutd over its HTTP API; stats falls back to reading the
// statistics database directly when the daemon is not reachable. The daemon
// subcommand runs the daemon in the foreground.
package main
