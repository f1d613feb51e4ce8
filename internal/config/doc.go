// Package config loads, normalizes, and validates tomitake configuration.
//
// It supplies defaults, expands user paths, reads TOML files, and honours
// environment fallbacks such as TOMITAKE_PIPING_URL. Command-line flags are
// applied on top of the loaded Config by the CLI.
package config
