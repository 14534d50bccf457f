// Package render turns a timeline and a narration track into one video.
//
// Each timeline item becomes a clip: the image is cover-cropped to the
// canvas, given the fade and motion its style prescribes, and concatenated
// in order. The narration is the only audio track and a short global fade
// wraps the whole video. ffmpeg does the encoding; the output is written to
// a temporary sibling and only renamed into place once it is complete.
package render
