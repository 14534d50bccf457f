// Package services defines shared utilities consumed by the pipeline stages
// and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper that keep failure
//     classification (not found, validation, render) uniform across stages.
//
// Use these helpers when wiring new stage logic so error handling and
// observability stay consistent across the pipeline.
package services
