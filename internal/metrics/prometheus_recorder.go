package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once          sync.Once
	stageDuration *prom.HistogramVec
	buildDuration prom.Histogram
	stageResults  *prom.CounterVec
	buildOutcome  *prom.CounterVec
	postsParsed   prom.Counter
	postsSkipped  prom.Counter
	pagesWritten  prom.Counter
}

// NewPrometheusRecorder constructs and registers the build metrics on reg.
// A nil registry gets a private one, which keeps tests isolated.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.stageDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "mblog",
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual build stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"})
		pr.buildDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "mblog",
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prom.DefBuckets,
		})
		pr.stageResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "mblog",
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"})
		pr.buildOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "mblog",
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"})
		pr.postsParsed = prom.NewCounter(prom.CounterOpts{
			Namespace: "mblog",
			Name:      "posts_parsed_total",
			Help:      "Markdown posts parsed successfully",
		})
		pr.postsSkipped = prom.NewCounter(prom.CounterOpts{
			Namespace: "mblog",
			Name:      "posts_skipped_total",
			Help:      "Markdown files skipped because parsing failed",
		})
		pr.pagesWritten = prom.NewCounter(prom.CounterOpts{
			Namespace: "mblog",
			Name:      "pages_written_total",
			Help:      "HTML pages written to the output directory",
		})
		reg.MustRegister(pr.stageDuration, pr.buildDuration, pr.stageResults, pr.buildOutcome, pr.postsParsed, pr.postsSkipped, pr.pagesWritten)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil || p.stageDuration == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil || p.buildDuration == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil || p.stageResults == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome string) {
	if p == nil || p.buildOutcome == nil {
		return
	}
	p.buildOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) AddPostsParsed(n int) {
	if p == nil || p.postsParsed == nil {
		return
	}
	p.postsParsed.Add(float64(n))
}

func (p *PrometheusRecorder) AddPostsSkipped(n int) {
	if p == nil || p.postsSkipped == nil {
		return
	}
	p.postsSkipped.Add(float64(n))
}

func (p *PrometheusRecorder) AddPagesWritten(n int) {
	if p == nil || p.pagesWritten == nil {
		return
	}
	p.pagesWritten.Add(float64(n))
}
