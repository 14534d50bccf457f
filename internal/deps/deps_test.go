package deps

import (
	"os"
	"path/filepath"
	"testing"
)

func writeStub(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
}

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	writeStub(t, present)
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Blank", Command: "  "},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available || results[0].Detail != "" {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[0].Command != present {
		t.Fatalf("expected resolved command %q, got %q", present, results[0].Command)
	}
	if results[1].Available || results[1].Detail == "" {
		t.Fatalf("expected missing binary to be unavailable with detail, got %#v", results[1])
	}
	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}
	if results[2].Detail != "command not configured" {
		t.Fatalf("unexpected detail for blank command: %q", results[2].Detail)
	}
}

func TestSatisfiedIgnoresOptional(t *testing.T) {
	statuses := []Status{
		{Name: "ffmpeg", Available: true},
		{Name: "uvx", Optional: true},
	}
	if !Satisfied(statuses) {
		t.Fatal("expected optional miss to be tolerated")
	}
	statuses = append(statuses, Status{Name: "ffprobe"})
	if Satisfied(statuses) {
		t.Fatal("expected required miss to fail")
	}
}

func TestResolveFFprobePrefersSibling(t *testing.T) {
	dir := t.TempDir()
	ffmpeg := filepath.Join(dir, executableName("ffmpeg"))
	ffprobe := filepath.Join(dir, executableName("ffprobe"))
	writeStub(t, ffmpeg)
	writeStub(t, ffprobe)

	if got := ResolveFFprobe(ffmpeg, ""); got != ffprobe {
		t.Fatalf("expected sibling %q, got %q", ffprobe, got)
	}
}

func TestResolveFFprobeExplicitWins(t *testing.T) {
	dir := t.TempDir()
	ffmpeg := filepath.Join(dir, executableName("ffmpeg"))
	writeStub(t, ffmpeg)
	writeStub(t, filepath.Join(dir, executableName("ffprobe")))

	if got := ResolveFFprobe(ffmpeg, "/opt/media/ffprobe"); got != "/opt/media/ffprobe" {
		t.Fatalf("expected configured ffprobe, got %q", got)
	}
}

func TestResolveFFprobeFallsBackToPath(t *testing.T) {
	dir := t.TempDir()
	ffmpeg := filepath.Join(dir, executableName("ffmpeg"))
	writeStub(t, ffmpeg)

	if got := ResolveFFprobe(ffmpeg, ""); got != "ffprobe" {
		t.Fatalf("expected PATH fallback, got %q", got)
	}
	if got := ResolveFFprobe("", "ffprobe"); got != "ffprobe" {
		t.Fatalf("expected default name, got %q", got)
	}
}
