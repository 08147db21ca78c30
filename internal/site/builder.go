// Package site drives the build pipeline: it takes parsed posts and a loaded
// theme and writes the complete static site to the output directory.
package site

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/mblog/internal/config"
	"git.home.luguber.info/inful/mblog/internal/content"
	"git.home.luguber.info/inful/mblog/internal/logfields"
	"git.home.luguber.info/inful/mblog/internal/metrics"
	"git.home.luguber.info/inful/mblog/internal/render"
	"git.home.luguber.info/inful/mblog/internal/theme"
)

// Builder generates the static site.
type Builder struct {
	cfg       *config.Config
	theme     *theme.Theme
	renderer  *render.Renderer
	outputDir string
	mdDir     string
	recorder  metrics.Recorder
	buildTime time.Time
}

// buildState carries the per-run data through the stages.
type buildState struct {
	builder *Builder
	posts   []*content.Post
	tags    map[string][]*content.Post
	report  *BuildReport
}

// NewBuilder creates a builder over a validated configuration and a loaded
// theme. Directories come from the build section of the configuration.
func NewBuilder(cfg *config.Config, th *theme.Theme, renderer *render.Renderer) *Builder {
	build := cfg.BuildSection()
	return &Builder{
		cfg:       cfg,
		theme:     th,
		renderer:  renderer,
		outputDir: filepath.Clean(build.OutputDir),
		mdDir:     filepath.Clean(build.MarkdownDir),
		recorder:  metrics.NoopRecorder{},
		buildTime: time.Now(),
	}
}

// SetRecorder injects a metrics recorder. Returns the builder for chaining.
func (b *Builder) SetRecorder(r metrics.Recorder) *Builder {
	if r == nil {
		b.recorder = metrics.NoopRecorder{}
		return b
	}
	b.recorder = r
	return b
}

// WithBuildTime overrides the timestamp stamped into the sitemap and search
// index. Defaults to time.Now at construction.
func (b *Builder) WithBuildTime(t time.Time) *Builder {
	b.buildTime = t
	return b
}

// WithOutputDir overrides the output directory from the configuration.
func (b *Builder) WithOutputDir(dir string) *Builder {
	if dir != "" {
		b.outputDir = filepath.Clean(dir)
	}
	return b
}

// OutputDir returns the cleaned output directory path.
func (b *Builder) OutputDir() string { return b.outputDir }

// Build runs the full pipeline over the given posts, which must already be
// sorted newest first. Optional outputs degrade to warnings; the first fatal
// stage error aborts the build.
func (b *Builder) Build(ctx context.Context, posts []*content.Post) (*BuildReport, error) {
	slog.Info("starting site generation",
		logfields.Output(b.outputDir),
		logfields.Count(len(posts)))

	report := newBuildReport()
	report.PostsParsed = len(posts)
	b.recorder.AddPostsParsed(len(posts))

	bs := &buildState{
		builder: b,
		posts:   posts,
		tags:    render.AggregateTags(posts),
		report:  report,
	}
	report.TagCount = len(bs.tags)

	stages := []StageDef{
		{StagePrepareOutput, stagePrepareOutput},
		{StageCopyStatic, stageCopyStatic},
		{StageCopyImages, stageCopyImages},
		{StageIndexPages, stageIndexPages},
		{StagePostPages, stagePostPages},
		{StageTagPages, stageTagPages},
		{StageArchivePage, stageArchivePage},
		{StageRSSFeed, stageRSSFeed},
		{StageSitemap, stageSitemap},
		{StageSearchIndex, stageSearchIndex},
	}

	err := runStages(ctx, bs, stages)
	report.finish(err != nil)
	b.recorder.ObserveBuildDuration(report.Duration)
	b.recorder.IncBuildOutcome(report.Outcome)
	b.recorder.AddPagesWritten(report.PagesWritten)

	if err != nil {
		return report, err
	}

	slog.Info("site generation complete",
		logfields.Output(b.outputDir),
		logfields.Count(report.PagesWritten),
		logfields.DurationMS(float64(report.Duration.Milliseconds())))
	return report, nil
}
