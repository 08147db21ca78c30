package site

import "context"

// StageName is a strongly-typed identifier for a build stage. All canonical
// stages are declared as constants here.
type StageName string

// Canonical stage names, in pipeline order.
const (
	StagePrepareOutput StageName = "prepare_output"
	StageCopyStatic    StageName = "copy_static"
	StageCopyImages    StageName = "copy_images"
	StageIndexPages    StageName = "index_pages"
	StagePostPages     StageName = "post_pages"
	StageTagPages      StageName = "tag_pages"
	StageArchivePage   StageName = "archive_page"
	StageRSSFeed       StageName = "rss_feed"
	StageSitemap       StageName = "sitemap"
	StageSearchIndex   StageName = "search_index"
)

// Stage is one step of the build pipeline.
type Stage func(ctx context.Context, bs *buildState) error

// StageDef pairs a stage name with its executing function.
type StageDef struct {
	Name StageName
	Fn   Stage
}
