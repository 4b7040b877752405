package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"subforge/internal/logging"
	"subforge/internal/progress"
	"subforge/internal/services"
)

// runStage executes fn as a named stage: the stage name is stamped into the
// context, progress is tracked, and start/finish are logged.
func (p *Context) runStage(ctx context.Context, tracker *progress.Tracker, name string, fn func(context.Context, *slog.Logger) error) error {
	stageCtx := services.WithStage(ctx, name)
	stageLogger := logging.WithContext(stageCtx, p.logger)
	stageLogger.Info("stage started", logging.String(logging.FieldEventType, "stage_start"))

	started := time.Now()
	err := tracker.RunStage(stageCtx, name, func(ctx context.Context) error {
		return fn(ctx, stageLogger)
	})
	if err != nil {
		stageLogger.Error("stage failed",
			logging.String(logging.FieldEventType, "stage_failure"),
			logging.String("error_message", strings.TrimSpace(err.Error())),
			logging.Duration("elapsed", time.Since(started)),
			logging.Error(err),
		)
		return err
	}
	stageLogger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("elapsed", time.Since(started)),
	)
	return nil
}

// emitWithin reports done/total inside a planned stage's progress range.
func emitWithin(tracker *progress.Tracker, plan progress.Plan, stage string, done, total int, detail string) {
	sp, ok := plan.Stage(stage)
	if !ok || total <= 0 {
		return
	}
	tracker.Emit(stage, sp.Base+sp.Weight*float64(done)/float64(total), detail)
}
