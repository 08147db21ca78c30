// Package metrics provides observability hooks for site builds.
//
// The package follows the Null Object pattern: components receive a Recorder
// through injection and default to NoopRecorder, so there are no nil checks
// at call sites and no overhead when metrics are disabled. To enable
// collection, swap in NewPrometheusRecorder.
package metrics

import "time"

// ResultLabel enumerates stage result categories for counters.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultWarning ResultLabel = "warning"
	ResultFatal   ResultLabel = "fatal"
)

// Recorder defines the hooks for build and stage metrics. Implementations
// may forward to Prometheus or any other backend.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveBuildDuration(d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	IncBuildOutcome(outcome string) // outcome: success|warning|failed
	AddPostsParsed(n int)
	AddPostsSkipped(n int)
	AddPagesWritten(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not
// configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)         {}
func (NoopRecorder) IncStageResult(string, ResultLabel)         {}
func (NoopRecorder) IncBuildOutcome(string)                     {}
func (NoopRecorder) AddPostsParsed(int)                         {}
func (NoopRecorder) AddPostsSkipped(int)                        {}
func (NoopRecorder) AddPagesWritten(int)                        {}
