package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// verdict tags a report line. verdictNone prints the value bare.
type verdict int

const (
	verdictNone verdict = iota
	verdictPass
	verdictFail
	verdictSkip
)

const (
	ansiReset  = "\x1b[0m"
	ansiBold   = "\x1b[1m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
)

const reportLabelWidth = 16

// report writes the titled label/value blocks printed by check and render.
type report struct {
	out      io.Writer
	colorize bool
}

func newReport(out io.Writer) *report {
	return &report{out: out, colorize: isTerminal(out)}
}

func (r *report) title(text string) {
	text = strings.TrimSpace(text)
	rule := strings.Repeat("=", len(text))
	if r.colorize {
		text = ansiBold + text + ansiReset
	}
	fmt.Fprintln(r.out, text)
	fmt.Fprintln(r.out, rule)
}

func (r *report) line(label string, v verdict, value string) {
	tag := v.tag()
	if tag != "" && r.colorize {
		tag = v.color() + tag + ansiReset
	}
	parts := make([]string, 0, 2)
	if tag != "" {
		parts = append(parts, tag)
	}
	if value != "" {
		parts = append(parts, value)
	}
	fmt.Fprintf(r.out, "  %-*s %s\n", reportLabelWidth, label+":", strings.Join(parts, " "))
}

func (r *report) blank() {
	fmt.Fprintln(r.out)
}

func (v verdict) tag() string {
	switch v {
	case verdictPass:
		return "[PASS]"
	case verdictFail:
		return "[FAIL]"
	case verdictSkip:
		return "[SKIP]"
	default:
		return ""
	}
}

func (v verdict) color() string {
	switch v {
	case verdictPass:
		return ansiGreen
	case verdictFail:
		return ansiRed
	default:
		return ansiYellow
	}
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// writeJSON prints v as indented JSON. File paths keep their & and < as-is.
func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
