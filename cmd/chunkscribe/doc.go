// Package main hosts the chunkscribe CLI.
//
// The Cobra command tree loads configuration once, then hands off to the
// internal packages: transcribe drives the pipeline, check runs preflight
// checks, history reads the run ledger and config scaffolds or validates the
// TOML file. Commands only parse flags and render results.
package main
