// Package whisperx transcribes narration with WhisperX run through uvx.
//
// The narration is first converted to mono 16 kHz PCM with ffmpeg, then
// WhisperX writes a JSON transcript whose sentence-level segments become
// transcription.Segment values.
package whisperx
