package deps

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// ResolveFFprobe picks the ffprobe binary that pairs with ffmpeg.
//
// An explicitly configured ffprobe wins. Otherwise, when ffmpeg resolves to a
// concrete file, an ffprobe sitting in the same directory is preferred over
// whatever PATH provides so that static builds are probed with their own
// matching tool.
func ResolveFFprobe(ffmpeg, ffprobe string) string {
	ffprobe = strings.TrimSpace(ffprobe)
	if ffprobe != "" && ffprobe != "ffprobe" {
		return ffprobe
	}
	ffmpeg = strings.TrimSpace(ffmpeg)
	if ffmpeg != "" {
		if resolved, err := exec.LookPath(ffmpeg); err == nil {
			candidate := filepath.Join(filepath.Dir(resolved), executableName("ffprobe"))
			if info, statErr := os.Stat(candidate); statErr == nil && isExecutable(info) {
				return candidate
			}
		}
	}
	return "ffprobe"
}

func executableName(base string) string {
	if runtime.GOOS == "windows" {
		return base + ".exe"
	}
	return base
}

func isExecutable(info os.FileInfo) bool {
	if info == nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
