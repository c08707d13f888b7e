// Package daemon runs the long-lived labnote HTTP service.
//
// It wires configuration, the notebook service, and Prometheus metrics into a
// single lifecycle with flock-based locking to prevent two servers sharing a
// data directory. Handlers stay thin: parsing, storage, and ranking live in
// their own packages while the daemon focuses on startup, shutdown, and
// request plumbing.
package daemon
