// Package timeline turns ordered match results into the gap-free sequence of
// image spans that drives rendering.
package timeline

import (
	"fmt"
	"math"
	"slices"

	"storyvideo/internal/matching"
	"storyvideo/internal/services"
)

// boundaryTolerance is the largest end/start mismatch treated as a shared
// boundary. It absorbs float noise from timestamp parsing and is far below
// one frame at any supported frame rate.
const boundaryTolerance = 1e-6

// Item is one rendering-ready span.
type Item struct {
	Start      float64 `json:"start_time"`
	End        float64 `json:"end_time"`
	ImagePath  string  `json:"image_path"`
	Confidence float64 `json:"confidence"`
}

// Duration returns the span length in seconds.
func (i Item) Duration() float64 {
	return i.End - i.Start
}

// Build projects results 1:1 onto items, stably sorted by start time, and
// verifies that consecutive items share a boundary. Segment boundaries are
// preserved verbatim; a gap or overlap is reported, never repaired.
func Build(results []matching.Result) ([]Item, error) {
	items := make([]Item, len(results))
	for i, r := range results {
		items[i] = Item{
			Start:      r.Segment.Start,
			End:        r.Segment.End,
			ImagePath:  r.Image.Path,
			Confidence: r.Confidence,
		}
	}
	slices.SortStableFunc(items, func(a, b Item) int {
		switch {
		case a.Start < b.Start:
			return -1
		case a.Start > b.Start:
			return 1
		default:
			return 0
		}
	})
	for i := 0; i+1 < len(items); i++ {
		if math.Abs(items[i].End-items[i+1].Start) > boundaryTolerance {
			return nil, services.Wrap(services.ErrValidation, "timeline", "build",
				fmt.Sprintf("segments %d and %d are not contiguous (%.3fs -> %.3fs)", i, i+1, items[i].End, items[i+1].Start), nil)
		}
	}
	return items, nil
}

// Summary is the read-only aggregate returned with a finished run.
type Summary struct {
	Duration          float64 `json:"duration"`
	SegmentCount      int     `json:"segment_count"`
	ImagesUsed        int     `json:"images_used"`
	UniqueImages      int     `json:"unique_images"`
	Timeline          []Item  `json:"timeline"`
	AverageConfidence float64 `json:"average_confidence"`
}

// Summarize computes the run summary for a finalized timeline.
func Summarize(items []Item, segmentCount int, duration float64) Summary {
	summary := Summary{
		Duration:     duration,
		SegmentCount: segmentCount,
		ImagesUsed:   len(items),
		Timeline:     items,
	}
	unique := make(map[string]struct{}, len(items))
	total := 0.0
	for _, item := range items {
		unique[item.ImagePath] = struct{}{}
		total += item.Confidence
	}
	summary.UniqueImages = len(unique)
	if len(items) > 0 {
		summary.AverageConfidence = total / float64(len(items))
	}
	return summary
}
