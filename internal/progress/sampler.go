package progress

// logSampler thins debug progress logs to one line per stage change or
// percent bucket. Final stage events always pass.
type logSampler struct {
	bucket float64
	stage  string
	last   int
}

func newLogSampler(bucket float64) *logSampler {
	if bucket <= 0 {
		bucket = 10
	}
	return &logSampler{bucket: bucket, last: -1}
}

func (s *logSampler) allow(ev Event) bool {
	b := int(min(max(ev.Percent, 0), 100) / s.bucket)
	switch {
	case ev.Stage != s.stage:
		s.stage, s.last = ev.Stage, b
		return true
	case b > s.last:
		s.last = b
		return true
	default:
		return ev.Done
	}
}
