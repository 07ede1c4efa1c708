// Package config loads, normalizes, and validates gamearr configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// QBITTORRENT_PASSWORD, optionally seeded from a .env file next to the config.
// The Config type centralizes every knob the daemon and CLI need so download
// client credentials and reconciliation timing are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
