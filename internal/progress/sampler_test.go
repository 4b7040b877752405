package progress

import "testing"

func TestLogSamplerBuckets(t *testing.T) {
	s := newLogSampler(10)
	steps := []struct {
		ev   Event
		want bool
	}{
		{Event{Stage: StageTranscribe, Percent: 0}, true},
		{Event{Stage: StageTranscribe, Percent: 4}, false},
		{Event{Stage: StageTranscribe, Percent: 12}, true},
		{Event{Stage: StageTranscribe, Percent: 19}, false},
		{Event{Stage: StageTranscribe, Percent: 19, Done: true}, true},
		{Event{Stage: StageTranslate, Percent: 19}, true},
		{Event{Stage: StageTranslate, Percent: 150}, true},
		{Event{Stage: StageTranslate, Percent: 150}, false},
	}
	for i, step := range steps {
		if got := s.allow(step.ev); got != step.want {
			t.Fatalf("step %d (%+v): got %v want %v", i, step.ev, got, step.want)
		}
	}
}

func TestLogSamplerDefaultBucket(t *testing.T) {
	if s := newLogSampler(0); s.bucket != 10 {
		t.Fatalf("bucket = %v, want 10", s.bucket)
	}
}
