// Package transcription defines the speech-to-text contract consumed by the
// pipeline and the timing normalization applied to backend output.
//
// Backends live in subpackages (whisperx, google). They return raw segments;
// Normalize turns those into a gap-free sequence covering the narration so the
// timeline can tile it exactly.
package transcription
