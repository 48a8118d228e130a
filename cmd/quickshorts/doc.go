// Package main hosts the quickshorts CLI.
//
// Commands resolve configuration from a TOML file and command-line flags,
// then hand the job to the workflow runner. Media work lives in the internal
// packages; this package only wires them together and renders results.
package main
