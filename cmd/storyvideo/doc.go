// Package main hosts the storyvideo CLI entrypoint and command graph.
//
// The Cobra command tree turns an images directory and a narration file into
// a rendered video, and exposes the intermediate steps (keywords, plan),
// readiness checks, the run journal, and configuration scaffolding. Config
// resolution and logger setup live in commandContext so subcommands only
// describe their flags and output.
//
// Keep this package thin: behaviour belongs in internal/storyvideo and the
// packages it composes.
package main
