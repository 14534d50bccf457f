// Package keywords derives searchable tokens from image file names and
// narration text.
//
// Tokens are NFC-normalized and lowercased with language-aware casing so that
// file names written on macOS (NFD) compare equal to transcript text. Stop
// words come from a fixed table per narration language.
package keywords
