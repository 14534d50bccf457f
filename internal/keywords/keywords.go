package keywords

import (
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

const (
	minFilenameTokenRunes = 3
	minTextTokenRunes     = 4
)

// DefaultLanguage is the narration language assumed when none is configured.
const DefaultLanguage = "pt"

// Extractor turns file names into keyword lists for one narration language.
// It is immutable and safe for concurrent use.
type Extractor struct {
	lang string
	tag  language.Tag
	stop map[string]struct{}
}

// New builds an extractor for the given language code ("pt", "en", "pt-BR").
// Unknown languages use the union of every stop-word table.
func New(lang string) *Extractor {
	base := strings.ToLower(strings.TrimSpace(lang))
	if base == "" {
		base = DefaultLanguage
	}
	if idx := strings.IndexAny(base, "-_"); idx > 0 {
		base = base[:idx]
	}
	tag, err := language.Parse(base)
	if err != nil {
		tag = language.Und
	}
	return &Extractor{lang: base, tag: tag, stop: stopWordSet(base)}
}

// Language reports the base language code used for stop words.
func (e *Extractor) Language() string {
	return e.lang
}

// Extract returns the keywords carried by a file name: extension stripped,
// separators split, punctuation removed, lowercased, short tokens and stop
// words dropped. Order follows first occurrence and duplicates are removed.
func (e *Extractor) Extract(filename string) []string {
	name := filepath.Base(strings.TrimSpace(filename))
	if name == "." || name == string(filepath.Separator) {
		return nil
	}
	name = strings.TrimSuffix(name, filepath.Ext(name))
	if name == "" {
		return nil
	}
	name = strings.Map(func(r rune) rune {
		switch {
		case r == '_' || r == '-' || r == '.':
			return ' '
		case unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r):
			return r
		case unicode.Is(unicode.Mn, r):
			// combining accents survive so NFC can recompose them
			return r
		default:
			return -1
		}
	}, name)

	out := make([]string, 0, 4)
	seen := make(map[string]struct{})
	for _, token := range strings.Fields(e.normalize(name)) {
		if utf8.RuneCountInString(token) < minFilenameTokenRunes {
			continue
		}
		if _, stop := e.stop[token]; stop {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		out = append(out, token)
	}
	return out
}

// FromText extracts coarse keywords from a transcript segment: lowercased
// words longer than three runes once surrounding punctuation is trimmed.
func (e *Extractor) FromText(text string) []string {
	words := strings.Fields(e.normalize(text))
	out := make([]string, 0, len(words))
	for _, word := range words {
		word = strings.Trim(word, `.,!?;:"'()«»“”`)
		if utf8.RuneCountInString(word) < minTextTokenRunes {
			continue
		}
		out = append(out, word)
	}
	return out
}

// Normalize applies the same casing and Unicode normalization used for
// keywords, so callers can run containment tests against it.
func (e *Extractor) Normalize(text string) string {
	return e.normalize(text)
}

func (e *Extractor) normalize(text string) string {
	// cases.Caser is stateful, so one is built per call.
	return cases.Lower(e.tag).String(norm.NFC.String(text))
}
