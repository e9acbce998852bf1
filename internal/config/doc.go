// Package config loads, normalizes, and validates FillDrops configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the FILLDROPS_THRESHOLD
// environment override. Config centralizes every knob the CLI and pipeline
// need: the duplicate threshold, motion search parameters, render workers,
// external tool names, and logging.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths and clear validation errors.
package config
