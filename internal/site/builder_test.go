package site

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/mblog/internal/config"
	"git.home.luguber.info/inful/mblog/internal/content"
	"git.home.luguber.info/inful/mblog/internal/metrics"
	"git.home.luguber.info/inful/mblog/internal/render"
	"git.home.luguber.info/inful/mblog/internal/theme"
)

type fixture struct {
	builder *Builder
	output  string
	mdDir   string
}

type fixtureOpts struct {
	withStatic bool
	extraYAML  string
}

func newFixture(t *testing.T, opts fixtureOpts) *fixture {
	t.Helper()
	root := t.TempDir()

	themeDir := filepath.Join(root, "themes", "plain")
	tplDir := filepath.Join(themeDir, "templates")
	require.NoError(t, os.MkdirAll(tplDir, 0o755))
	templates := map[string]string{
		"base.html":  `<!DOCTYPE html><html><body>{{block "content" .}}{{end}}</body></html>`,
		"index.html": `{{define "content"}}INDEX {{with .posts}}{{len .}}{{end}}{{if .pagination}} page {{.pagination.Page}}/{{.pagination.TotalPages}}{{end}}{{end}}`,
		"post.html":  `{{define "content"}}POST {{.post.Title}} {{.post.Body}}{{end}}`,
	}
	for name, body := range templates {
		require.NoError(t, os.WriteFile(filepath.Join(tplDir, name), []byte(body), 0o644))
	}
	if opts.withStatic {
		staticDir := filepath.Join(themeDir, "static", "css")
		require.NoError(t, os.MkdirAll(staticDir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(staticDir, "main.css"), []byte("body{}"), 0o644))
	}

	mdDir := filepath.Join(root, "md")
	require.NoError(t, os.MkdirAll(mdDir, 0o755))
	output := filepath.Join(root, "public")

	cfgPath := filepath.Join(root, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
site:
  title: Test Blog
  description: A test blog
  author: Tester
  url: https://blog.test
build:
  output_dir: `+output+`
  theme: plain
  md_dir: `+mdDir+`
`+opts.extraYAML), 0o644))

	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)
	th, err := theme.Load(themeDir)
	require.NoError(t, err)

	engine := render.NewHTMLEngine(th.TemplatesDir(), "", "")
	renderer := render.NewRenderer(th, cfg, engine)

	return &fixture{
		builder: NewBuilder(cfg, th, renderer).WithBuildTime(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)),
		output:  output,
		mdDir:   mdDir,
	}
}

func (f *fixture) requireFile(t *testing.T, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(f.output, rel))
	require.NoError(t, err, "expected output file %s", rel)
	return string(data)
}

func (f *fixture) requireNoFile(t *testing.T, rel string) {
	t.Helper()
	_, err := os.Stat(filepath.Join(f.output, rel))
	require.True(t, os.IsNotExist(err), "expected %s to be absent", rel)
}

func sitePost(title, relPath string, date time.Time, tags ...string) *content.Post {
	return &content.Post{
		Title:        title,
		Slug:         date.Format("2006-01-02") + "-" + relPath,
		RelativePath: relPath,
		Date:         date,
		Tags:         tags,
		HTML:         "<p>body of " + title + "</p>",
	}
}

func TestBuilder_Build_WritesCorePages(t *testing.T) {
	f := newFixture(t, fixtureOpts{withStatic: true})
	posts := []*content.Post{
		sitePost("Newest", "newest", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), "go"),
		sitePost("Middle", "nested/middle", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), "go", "web"),
		sitePost("Oldest", "oldest", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
	}

	report, err := f.builder.Build(context.Background(), posts)
	require.NoError(t, err)
	require.Equal(t, OutcomeSuccess, report.Outcome)

	require.Contains(t, f.requireFile(t, "index.html"), "INDEX 3")
	require.Contains(t, f.requireFile(t, "posts/newest.html"), "POST Newest")
	f.requireFile(t, "posts/nested/middle.html")
	f.requireFile(t, "posts/oldest.html")
	f.requireFile(t, "tags/index.html")
	f.requireFile(t, "tags/go.html")
	f.requireFile(t, "tags/web.html")
	f.requireFile(t, "archive.html")
	f.requireFile(t, "rss.xml")
	f.requireFile(t, "sitemap.xml")
	f.requireFile(t, "search-index.json")
	require.Equal(t, "body{}", f.requireFile(t, "static/css/main.css"))

	// index + 3 posts + tags index + 2 tag pages + archive
	require.Equal(t, 8, report.PagesWritten)
	require.Equal(t, 3, report.PostsParsed)
	require.Equal(t, 2, report.TagCount)
	require.NotEmpty(t, report.BuildID)
}

func TestBuilder_Build_Pagination_WritesPageFiles(t *testing.T) {
	f := newFixture(t, fixtureOpts{withStatic: true, extraYAML: "theme_config:\n  posts_per_page: 2\n"})
	posts := make([]*content.Post, 0, 5)
	for d := 5; d >= 1; d-- {
		posts = append(posts, sitePost("P"+string(rune('0'+d)), "p"+string(rune('0'+d)), time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)))
	}

	_, err := f.builder.Build(context.Background(), posts)
	require.NoError(t, err)

	require.Contains(t, f.requireFile(t, "index.html"), "page 1/3")
	require.Contains(t, f.requireFile(t, "page/2.html"), "page 2/3")
	require.Contains(t, f.requireFile(t, "page/3.html"), "page 3/3")
	f.requireNoFile(t, "page/4.html")
}

func TestBuilder_Build_RepeatedBuildsAreByteIdentical(t *testing.T) {
	f := newFixture(t, fixtureOpts{withStatic: true})
	posts := []*content.Post{
		sitePost("Newest", "newest", time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC), "go"),
		sitePost("Oldest", "nested/oldest", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), "web"),
	}

	_, err := f.builder.Build(context.Background(), posts)
	require.NoError(t, err)
	first := snapshotTree(t, f.output)
	require.NotEmpty(t, first)

	_, err = f.builder.Build(context.Background(), posts)
	require.NoError(t, err)
	second := snapshotTree(t, f.output)

	require.Equal(t, first, second)
}

// snapshotTree maps every regular file under root, keyed by slash-relative
// path, to its contents.
func snapshotTree(t *testing.T, root string) map[string]string {
	t.Helper()
	files := map[string]string{}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		files[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	require.NoError(t, err)
	return files
}

func TestBuilder_Build_NoTags_SkipsTagPages(t *testing.T) {
	f := newFixture(t, fixtureOpts{withStatic: true})
	posts := []*content.Post{sitePost("Solo", "solo", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))}

	report, err := f.builder.Build(context.Background(), posts)
	require.NoError(t, err)
	require.Equal(t, OutcomeSuccess, report.Outcome)

	f.requireNoFile(t, "tags/index.html")
	require.Equal(t, metrics.ResultSuccess, report.StageResults[string(StageTagPages)])
}

func TestBuilder_Build_MissingStaticDir_WarnsButContinues(t *testing.T) {
	f := newFixture(t, fixtureOpts{withStatic: false})
	posts := []*content.Post{sitePost("Solo", "solo", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))}

	report, err := f.builder.Build(context.Background(), posts)
	require.NoError(t, err)
	require.Equal(t, OutcomeWarning, report.Outcome)
	require.Equal(t, metrics.ResultWarning, report.StageResults[string(StageCopyStatic)])
	require.NotEmpty(t, report.Warnings)

	// The rest of the pipeline still ran.
	f.requireFile(t, "index.html")
	f.requireFile(t, "posts/solo.html")
}

func TestBuilder_Build_FeedsDisabled(t *testing.T) {
	f := newFixture(t, fixtureOpts{withStatic: true, extraYAML: "  generate_rss: false\n  generate_sitemap: false\n"})
	posts := []*content.Post{sitePost("Solo", "solo", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))}

	_, err := f.builder.Build(context.Background(), posts)
	require.NoError(t, err)

	f.requireNoFile(t, "rss.xml")
	f.requireNoFile(t, "sitemap.xml")
	f.requireFile(t, "search-index.json")
}

func TestBuilder_Build_CopiesReferencedImages(t *testing.T) {
	f := newFixture(t, fixtureOpts{withStatic: true})
	imgDir := filepath.Join(f.mdDir, "assets")
	require.NoError(t, os.MkdirAll(imgDir, 0o755))
	imgPath := filepath.Join(imgDir, "pic.png")
	require.NoError(t, os.WriteFile(imgPath, []byte("png"), 0o644))

	post := sitePost("Pic", "pic", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	post.Images = []string{imgPath}

	report, err := f.builder.Build(context.Background(), []*content.Post{post})
	require.NoError(t, err)
	require.Equal(t, OutcomeSuccess, report.Outcome)
	require.Equal(t, "png", f.requireFile(t, "assets/images/assets/pic.png"))
}

func TestBuilder_Build_MissingImage_WarnsButContinues(t *testing.T) {
	f := newFixture(t, fixtureOpts{withStatic: true})
	post := sitePost("Pic", "pic", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	post.Images = []string{filepath.Join(f.mdDir, "gone.png")}

	report, err := f.builder.Build(context.Background(), []*content.Post{post})
	require.NoError(t, err)
	require.Equal(t, OutcomeWarning, report.Outcome)
	require.Equal(t, metrics.ResultWarning, report.StageResults[string(StageCopyImages)])
	f.requireFile(t, "posts/pic.html")
}

func TestBuilder_Build_CleansPreviousOutput(t *testing.T) {
	f := newFixture(t, fixtureOpts{withStatic: true})
	require.NoError(t, os.MkdirAll(f.output, 0o755))
	stale := filepath.Join(f.output, "stale.html")
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o644))

	_, err := f.builder.Build(context.Background(), []*content.Post{
		sitePost("Solo", "solo", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
	})
	require.NoError(t, err)
	f.requireNoFile(t, "stale.html")
}

func TestBuilder_Build_PostRenderFailure_Aborts(t *testing.T) {
	f := newFixture(t, fixtureOpts{withStatic: true})

	// Referencing a field PostView does not have fails at execution time.
	broken := filepath.Join(filepath.Dir(f.output), "themes", "plain", "templates", "post.html")
	require.NoError(t, os.WriteFile(broken, []byte(`{{define "content"}}{{.post.NoSuchField}}{{end}}`), 0o644))

	report, err := f.builder.Build(context.Background(), []*content.Post{
		sitePost("Solo", "solo", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
	})
	require.Error(t, err)
	require.Equal(t, OutcomeFailed, report.Outcome)
	require.Equal(t, metrics.ResultFatal, report.StageResults[string(StagePostPages)])

	// Later stages never ran.
	require.NotContains(t, report.StageResults, string(StageRSSFeed))
}

func TestBuilder_Build_CanceledContext_Fails(t *testing.T) {
	f := newFixture(t, fixtureOpts{withStatic: true})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := f.builder.Build(ctx, []*content.Post{
		sitePost("Solo", "solo", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
	})
	require.Error(t, err)
	require.Equal(t, OutcomeFailed, report.Outcome)
}
