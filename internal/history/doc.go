// Package history keeps a SQLite journal of pipeline runs so past renders
// can be listed and interrupted runs are visible after a restart.
package history
