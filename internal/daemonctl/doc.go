// Package daemonctl launches, stops and restarts a tagscout daemon process
// from the CLI. Liveness is judged by the daemon's HTTP status endpoint;
// termination uses the PID file the daemon writes under paths.data_dir.
package daemonctl
