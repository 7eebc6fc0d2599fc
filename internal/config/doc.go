// Package config loads, normalizes, and validates icokit configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// ICOKIT_USER_AGENT. The Config type centralizes every knob the crawler,
// downloader and cleaning pipeline need.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
