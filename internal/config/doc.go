// Package config loads, normalizes, and validates chunkscribe configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// OPENAI_API_KEY. The Config type centralizes every knob the CLI and pipeline
// need so the chunking ceiling, retry budget, and output policy are decided in
// one pass.
package config
