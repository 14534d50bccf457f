// Package workdir reclaims per-run scratch directories under paths.work_dir.
//
// Every run extracts audio and scales frames into <work_dir>/<run id> and
// removes it when it returns. A killed process leaves that directory behind;
// CleanStale and CleanOrphaned sweep such leftovers.
package workdir
