package progress

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"subforge/internal/logging"
)

const defaultTick = time.Second

// Event is one progress update.
type Event struct {
	Stage   string
	Percent float64
	ETA     time.Duration
	Detail  string
	// Done marks the final event of a stage.
	Done bool
	Time time.Time
}

// TrackerOptions tunes a Tracker.
type TrackerOptions struct {
	Tick   time.Duration
	Logger *slog.Logger
	// Now overrides the clock in tests.
	Now func() time.Time
}

// Tracker emits progress events for a Plan. A nil Tracker runs stages
// without reporting.
type Tracker struct {
	plan    Plan
	sink    chan<- Event
	tick    time.Duration
	now     func() time.Time
	start   time.Time
	logger  *slog.Logger
	sampler *logSampler

	mu      sync.Mutex
	reached float64
	dropped atomic.Int64
}

// NewTracker returns a tracker that sends events to sink. sink may be nil
// when only logging is wanted.
func NewTracker(plan Plan, sink chan<- Event, opts TrackerOptions) *Tracker {
	tick := opts.Tick
	if tick <= 0 {
		tick = defaultTick
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Tracker{
		plan:    plan,
		sink:    sink,
		tick:    tick,
		now:     now,
		start:   now(),
		logger:  logging.NewComponentLogger(opts.Logger, "progress"),
		sampler: newLogSampler(10),
	}
}

// Dropped returns how many events were discarded because the subscriber
// was not ready.
func (t *Tracker) Dropped() int64 {
	if t == nil {
		return 0
	}
	return t.dropped.Load()
}

// Emit sends a discrete event at percent.
func (t *Tracker) Emit(stage string, percent float64, detail string) {
	if t == nil {
		return
	}
	t.send(Event{Stage: stage, Percent: percent, Detail: detail})
}

// Finish sends the terminal 100% event.
func (t *Tracker) Finish(detail string) {
	if t == nil {
		return
	}
	t.send(Event{Stage: StageDone, Percent: 100, Detail: detail, Done: true})
}

// RunStage runs fn while a background ticker estimates its progress from
// elapsed time against the plan. When fn returns the ticker is stopped
// before the stage's final event is sent, so no estimate can follow it.
// Stages missing from the plan report ETA only.
func (t *Tracker) RunStage(ctx context.Context, name string, fn func(context.Context) error) error {
	if t == nil {
		return fn(ctx)
	}
	stage, ok := t.plan.Stage(name)
	if !ok {
		stage = StagePlan{Name: name, Base: t.current()}
	}

	started := t.now()
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(t.tick)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				t.send(Event{Stage: name, Percent: stage.estimate(t.now().Sub(started)), Detail: "running"})
			}
		}
	}()

	err := fn(ctx)
	close(done)
	wg.Wait()

	detail := "done"
	if err != nil {
		detail = "failed"
	}
	t.send(Event{Stage: name, Percent: stage.Base + stage.Weight, Detail: detail, Done: true})
	return err
}

// estimate maps elapsed time into the stage's progress range, saturating at
// the upper bound when the stage overruns its estimate.
func (s StagePlan) estimate(elapsed time.Duration) float64 {
	if s.Weight == 0 {
		return s.Base
	}
	expected := max(s.Expected, 100*time.Millisecond)
	ratio := min(1, float64(elapsed)/float64(expected))
	return s.Base + ratio*s.Weight
}

func (t *Tracker) current() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.reached
}

func (t *Tracker) send(ev Event) {
	now := t.now()
	ev.Time = now
	ev.ETA = max(0, t.plan.Total-now.Sub(t.start))
	if ev.Done && ev.Stage == StageDone {
		ev.ETA = 0
	}

	t.mu.Lock()
	// Percent never moves backwards across stages.
	if ev.Percent < t.reached {
		ev.Percent = t.reached
	}
	t.reached = ev.Percent
	shouldLog := t.sampler.allow(ev)
	t.mu.Unlock()

	if shouldLog {
		t.logger.Debug("progress",
			logging.String(logging.FieldStage, ev.Stage),
			logging.Float64("percent", ev.Percent),
			logging.Duration("eta", ev.ETA),
			logging.String("detail", ev.Detail),
		)
	}

	if t.sink == nil {
		return
	}
	select {
	case t.sink <- ev:
	default:
		t.dropped.Add(1)
	}
}
