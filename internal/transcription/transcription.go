package transcription

import (
	"context"
	"fmt"
	"strings"

	"storyvideo/internal/keywords"
)

// Segment is one timestamped span of narration. Times are in seconds.
type Segment struct {
	Text     string   `json:"text"`
	Start    float64  `json:"start"`
	End      float64  `json:"end"`
	Keywords []string `json:"keywords,omitempty"`
}

// Duration returns End-Start.
func (s Segment) Duration() float64 {
	return s.End - s.Start
}

func (s Segment) String() string {
	return fmt.Sprintf("[%.2f-%.2f] %s", s.Start, s.End, s.Text)
}

// Transcriber converts an audio file into ordered, timestamped segments.
type Transcriber interface {
	Name() string
	Transcribe(ctx context.Context, audioPath string) ([]Segment, error)
}

// Normalize prepares backend output for timeline construction. Segments with
// empty text are dropped, the first segment is snapped to zero, every segment
// is stretched or trimmed to end where the next one starts, and the last
// segment is extended to audioDuration when that is later than its end.
// Keywords are filled from the text when the extractor is non-nil. Input
// order is preserved.
func Normalize(raw []Segment, audioDuration float64, extractor *keywords.Extractor) []Segment {
	out := make([]Segment, 0, len(raw))
	for _, seg := range raw {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		seg.Text = text
		if extractor != nil && len(seg.Keywords) == 0 {
			seg.Keywords = extractor.FromText(text)
		}
		out = append(out, seg)
	}
	if len(out) == 0 {
		return out
	}

	out[0].Start = 0
	for i := 0; i < len(out)-1; i++ {
		out[i].End = out[i+1].Start
	}
	if last := &out[len(out)-1]; audioDuration > last.End {
		last.End = audioDuration
	}
	return out
}
