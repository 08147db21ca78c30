package site

import (
	"context"
	"log/slog"
	"time"

	blogerrors "git.home.luguber.info/inful/mblog/internal/errors"
	"git.home.luguber.info/inful/mblog/internal/logfields"
	"git.home.luguber.info/inful/mblog/internal/metrics"
)

// runStages executes stages in order, recording timing per stage. A
// warning-severity error is logged and recorded but does not stop the
// pipeline; any other error aborts the build.
func runStages(ctx context.Context, bs *buildState, stages []StageDef) error {
	rec := bs.builder.recorder
	for _, st := range stages {
		select {
		case <-ctx.Done():
			err := blogerrors.Wrap(ctx.Err(), blogerrors.CategoryGeneration, blogerrors.SeverityFatal, "build canceled").
				WithContext("stage", string(st.Name))
			bs.report.recordStage(st.Name, 0, metrics.ResultFatal, rec)
			return err
		default:
		}

		t0 := time.Now()
		err := st.Fn(ctx, bs)
		dur := time.Since(t0)

		switch {
		case err == nil:
			bs.report.recordStage(st.Name, dur, metrics.ResultSuccess, rec)
			slog.Debug("stage complete",
				logfields.Stage(string(st.Name)),
				logfields.DurationMS(float64(dur.Milliseconds())))
		case blogerrors.IsWarning(err):
			bs.report.recordStage(st.Name, dur, metrics.ResultWarning, rec)
			bs.report.addWarning(err.Error())
			slog.Warn("stage degraded",
				logfields.Stage(string(st.Name)),
				logfields.Error(err))
		default:
			bs.report.recordStage(st.Name, dur, metrics.ResultFatal, rec)
			slog.Error("stage failed",
				logfields.Stage(string(st.Name)),
				logfields.Error(err))
			return blogerrors.GenerationFailed(string(st.Name), err)
		}
	}
	return nil
}
