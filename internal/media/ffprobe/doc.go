// Package ffprobe provides a typed wrapper around ffprobe JSON output, used to
// measure narration length before a run is planned.
package ffprobe
