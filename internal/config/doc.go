// Package config loads, normalizes, and validates the collector's TOML
// configuration. Path fields support ~ expansion and every section falls back
// to repository defaults when unset.
package config
