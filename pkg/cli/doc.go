// Package cli provides common CLI utilities for the mofel command-line tool.
//
// This package includes:
//   - Configuration management (contexts)
//   - Output formatting (YAML, JSON, raw) with optional jq filtering
//   - YAML/JSON file loading
//   - Terminal styles
//
// Configuration is stored in ~/.mofel/<app>/ directory, supporting
// multiple contexts similar to kubectl. A context names the embedding
// model sidecar, the hotwords with their reference files, the reference
// storage and, optionally, a transcription service.
//
// Example usage:
//
//	cfg, err := cli.LoadConfig("mofel")
//
//	// Get current context
//	ctx, err := cfg.GetCurrentContext()
//
//	// Output result
//	cli.Output(result, cli.OutputOptions{
//	    Format: cli.FormatJSON,
//	    Query:  ".hotwords[].label",
//	})
package cli
