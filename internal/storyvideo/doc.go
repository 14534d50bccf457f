// Package storyvideo runs the narration-to-video pipeline.
//
// A run discovers the image catalog, transcribes the narration, matches every
// segment to an image, builds the timeline, and renders the video. Each run
// owns its catalog, usage ledger, metrics registry, and work directory, so
// runs submitted to a Runner may execute concurrently.
package storyvideo
