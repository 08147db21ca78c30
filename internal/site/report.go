package site

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/mblog/internal/metrics"
)

// Build outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeWarning = "warning"
	OutcomeFailed  = "failed"
)

// BuildReport aggregates timings, counts and warnings of one build run.
type BuildReport struct {
	BuildID        string                         `json:"build_id"`
	StartedAt      time.Time                      `json:"started_at"`
	FinishedAt     time.Time                      `json:"finished_at"`
	Duration       time.Duration                  `json:"duration"`
	Outcome        string                         `json:"outcome"`
	StageDurations map[string]time.Duration       `json:"stage_durations"`
	StageResults   map[string]metrics.ResultLabel `json:"stage_results"`
	Warnings       []string                       `json:"warnings,omitempty"`
	PostsParsed    int                            `json:"posts_parsed"`
	PostsSkipped   int                            `json:"posts_skipped"`
	PagesWritten   int                            `json:"pages_written"`
	TagCount       int                            `json:"tag_count"`

	mu sync.Mutex
}

func newBuildReport() *BuildReport {
	return &BuildReport{
		BuildID:        uuid.NewString(),
		StartedAt:      time.Now(),
		StageDurations: make(map[string]time.Duration),
		StageResults:   make(map[string]metrics.ResultLabel),
	}
}

func (r *BuildReport) recordStage(stage StageName, d time.Duration, result metrics.ResultLabel, rec metrics.Recorder) {
	r.mu.Lock()
	r.StageDurations[string(stage)] = d
	r.StageResults[string(stage)] = result
	r.mu.Unlock()
	rec.ObserveStageDuration(string(stage), d)
	rec.IncStageResult(string(stage), result)
}

func (r *BuildReport) addWarning(msg string) {
	r.mu.Lock()
	r.Warnings = append(r.Warnings, msg)
	r.mu.Unlock()
}

// addPages is safe for concurrent use by the post page workers.
func (r *BuildReport) addPages(n int) {
	r.mu.Lock()
	r.PagesWritten += n
	r.mu.Unlock()
}

// finish stamps the end time and derives the final outcome from the stage
// results recorded so far.
func (r *BuildReport) finish(failed bool) {
	r.FinishedAt = time.Now()
	r.Duration = r.FinishedAt.Sub(r.StartedAt)

	switch {
	case failed:
		r.Outcome = OutcomeFailed
	case r.hasWarnings():
		r.Outcome = OutcomeWarning
	default:
		r.Outcome = OutcomeSuccess
	}
}

func (r *BuildReport) hasWarnings() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Warnings) > 0 {
		return true
	}
	for _, result := range r.StageResults {
		if result == metrics.ResultWarning {
			return true
		}
	}
	return false
}
