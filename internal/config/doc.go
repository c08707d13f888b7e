// Package config loads, normalizes, and validates labnote configuration.
//
// It supplies defaults, expands user paths (including tilde shortcuts), reads
// TOML files, and honours environment fallbacks such as LABNOTE_DSN and the
// sealing key variable. The CLI, HTTP service and store all take their
// settings from the Config type returned here.
package config
