package logging

import "testing"

func TestNewProgressSampler(t *testing.T) {
	tests := []struct {
		name       string
		bucketSize float64
		wantSize   float64
	}{
		{"default bucket size for zero", 0, 5},
		{"default bucket size for negative", -1, 5},
		{"custom bucket size", 10, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewProgressSampler(tt.bucketSize)
			if s.bucketSize != tt.wantSize {
				t.Errorf("bucketSize = %v, want %v", s.bucketSize, tt.wantSize)
			}
			if s.lastBucket != -1 {
				t.Errorf("lastBucket = %d, want -1", s.lastBucket)
			}
		})
	}
}

func TestProgressSamplerNil(t *testing.T) {
	var s *ProgressSampler
	if !s.ShouldLog(50, "matching") {
		t.Error("nil sampler should always log")
	}
	s.Reset()
}

func TestProgressSamplerBuckets(t *testing.T) {
	s := NewProgressSampler(25)
	steps := []struct {
		percent float64
		want    bool
	}{
		{0, true},
		{10, false},
		{24.9, false},
		{25, true},
		{30, false},
		{75, true},
		{150, true},
		{100, false},
	}
	for _, step := range steps {
		if got := s.ShouldLog(step.percent, "matching"); got != step.want {
			t.Fatalf("ShouldLog(%v) = %v, want %v", step.percent, got, step.want)
		}
	}
}

func TestProgressSamplerStageChangeResetsBucket(t *testing.T) {
	s := NewProgressSampler(5)
	if !s.ShouldLog(50, "transcription") {
		t.Fatal("first event should log")
	}
	if s.ShouldLog(50, "transcription") {
		t.Fatal("same stage and bucket should not log")
	}
	if !s.ShouldLog(0, "matching") {
		t.Fatal("stage change should log")
	}
	if s.ShouldLog(-1, "matching") {
		t.Fatal("unknown percent on same stage should not log")
	}
	s.Reset()
	if !s.ShouldLog(0, "matching") {
		t.Fatal("reset sampler should log again")
	}
}
