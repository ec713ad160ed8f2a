// Package config loads, normalizes, and validates the TOML configuration
// shared by the scribe CLI and daemon.
package config
