package logging

import "testing"

func TestNewProgressSamplerDefaults(t *testing.T) {
	for _, size := range []float64{0, -3} {
		if s := NewProgressSampler(size); s.bucketSize != 5 {
			t.Fatalf("bucketSize for %v = %v, want 5", size, s.bucketSize)
		}
	}
}

func TestProgressSamplerNil(t *testing.T) {
	var s *ProgressSampler
	if !s.ShouldLog(50, "playback") {
		t.Fatal("nil sampler should always log")
	}
	s.Reset()
}

func TestProgressSamplerBuckets(t *testing.T) {
	s := NewProgressSampler(10)
	steps := []struct {
		percent float64
		phase   string
		want    bool
	}{
		{0, "warmup", true},
		{4, "warmup", false},
		{10, "warmup", true},
		{19.9, "warmup", false},
		{25, "warmup", true},
		{25, "playback", true},
		{26, " playback ", false},
		{-1, "playback", false},
		{150, "playback", true},
		{100, "playback", false},
	}
	for i, step := range steps {
		if got := s.ShouldLog(step.percent, step.phase); got != step.want {
			t.Fatalf("step %d (%v, %q) = %v, want %v", i, step.percent, step.phase, got, step.want)
		}
	}

	s.Reset()
	if !s.ShouldLog(100, "playback") {
		t.Fatal("expected emit after Reset")
	}
}
