// Package config loads, normalizes, and validates quickshorts configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads and writes TOML files, and exposes the embedded sample
// used by `config init`. Validation failures wrap ErrInvalid so callers can
// tell a bad configuration apart from an I/O problem.
package config
