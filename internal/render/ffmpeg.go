package render

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"storyvideo/internal/timeline"
)

// globalFade wraps the assembled video regardless of style.
const globalFade = 0.5

// Clip is one prepared timeline entry. Frames is its length in output frames.
type Clip struct {
	Frame  string
	Frames int
	Effect Effect
}

func (c Clip) length(fps int) float64 {
	return float64(c.Frames) / float64(fps)
}

// frameCounts snaps item boundaries to the output frame grid so that clip k
// ends on frame round(items[k].End*fps). Every clip keeps at least one frame.
func frameCounts(items []timeline.Item, fps int) []int {
	counts := make([]int, len(items))
	if len(items) == 0 {
		return counts
	}
	rate := float64(fps)
	boundary := int(math.Round(items[0].Start * rate))
	for i, item := range items {
		next := max(int(math.Round(item.End*rate)), boundary+1)
		counts[i] = next - boundary
		boundary = next
	}
	return counts
}

type encodeSettings struct {
	width      int
	height     int
	fps        int
	videoCodec string
	audioCodec string
	preset     string
	threads    int
}

func buildArgs(clips []Clip, audioPath, outputPath string, s encodeSettings) []string {
	args := []string{"-hide_banner", "-loglevel", "error", "-nostdin", "-y"}
	fps := strconv.Itoa(s.fps)
	frames := 0
	for _, clip := range clips {
		// half a frame of slack on the input; trim pins the exact count
		limit := (float64(clip.Frames) + 0.5) / float64(s.fps)
		args = append(args, "-loop", "1", "-framerate", fps, "-t", seconds(limit), "-i", clip.Frame)
		frames += clip.Frames
	}
	total := float64(frames) / float64(s.fps)
	args = append(args, "-i", audioPath)

	args = append(args,
		"-filter_complex", filterGraph(clips, total, s),
		"-map", "[outv]",
		"-map", fmt.Sprintf("%d:a:0", len(clips)),
		"-c:v", s.videoCodec,
		"-pix_fmt", "yuv420p",
		"-r", fps,
	)
	if s.preset != "" {
		args = append(args, "-preset", s.preset)
	}
	args = append(args, "-c:a", s.audioCodec)
	if s.threads > 0 {
		args = append(args, "-threads", strconv.Itoa(s.threads))
	}
	args = append(args, "-movflags", "+faststart", "-t", seconds(total), outputPath)
	return args
}

func filterGraph(clips []Clip, total float64, s encodeSettings) string {
	chains := make([]string, 0, len(clips)+2)
	var labels strings.Builder
	for i, clip := range clips {
		chains = append(chains, fmt.Sprintf("[%d:v]%s[v%d]", i, clipFilters(clip, s), i))
		fmt.Fprintf(&labels, "[v%d]", i)
	}
	chains = append(chains, fmt.Sprintf("%sconcat=n=%d:v=1:a=0[cat]", labels.String(), len(clips)))

	fade := min(globalFade, total/2)
	chains = append(chains, fmt.Sprintf("[cat]fade=t=in:st=0:d=%s,fade=t=out:st=%s:d=%s[outv]",
		seconds(fade), seconds(total-fade), seconds(fade)))
	return strings.Join(chains, ";")
}

func clipFilters(clip Clip, s encodeSettings) string {
	filters := make([]string, 0, 6)
	filters = append(filters, fmt.Sprintf("trim=end_frame=%d", clip.Frames))
	if !clip.Effect.Motion.Static() {
		// one output frame per looped input frame; on counts output frames
		steps := max(1, clip.Frames-1)
		from, to := clip.Effect.Motion.From, clip.Effect.Motion.To
		filters = append(filters, fmt.Sprintf(
			"zoompan=z='%s+(%s)*on/%d':x='iw/2-(iw/zoom/2)':y='ih/2-(ih/zoom/2)':d=1:s=%dx%d:fps=%d",
			factor(from), factor(to-from), steps, s.width, s.height, s.fps,
		))
	}
	filters = append(filters, "setsar=1", "format=yuv420p")
	if fade := clip.Effect.Fade; fade > 0 {
		filters = append(filters,
			fmt.Sprintf("fade=t=in:st=0:d=%s", seconds(fade)),
			fmt.Sprintf("fade=t=out:st=%s:d=%s", seconds(clip.length(s.fps)-fade), seconds(fade)),
		)
	}
	return strings.Join(filters, ",")
}

func seconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

func factor(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
