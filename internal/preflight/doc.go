// Package preflight provides readiness checks for the binaries, directories
// and external services a story video run depends on.
//
// The CLI "check" command prints every result. The render command runs the
// same checks first and refuses to start when one fails, so a missing ffmpeg
// is reported before minutes are spent transcribing.
//
// Each check is gated by its config toggle; disabled features are skipped.
package preflight
