package site

import (
	"context"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"git.home.luguber.info/inful/mblog/internal/content"
	blogerrors "git.home.luguber.info/inful/mblog/internal/errors"
	"git.home.luguber.info/inful/mblog/internal/logfields"
	"git.home.luguber.info/inful/mblog/internal/slugify"
)

// writeFile writes content below the output directory, creating parent
// directories as needed.
func (bs *buildState) writeFile(relPath, content string) error {
	path := filepath.Join(bs.builder.outputDir, relPath)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return blogerrors.WriteFailed(path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return blogerrors.WriteFailed(path, err)
	}
	return nil
}

// writePage writes a rendered page and counts it.
func (bs *buildState) writePage(relPath, html string) error {
	if err := bs.writeFile(relPath, html); err != nil {
		return err
	}
	bs.report.addPages(1)
	return nil
}

func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return copyFile(path, target)
	})
}

// stagePrepareOutput clears and recreates the output directory so every
// build starts from a clean tree.
func stagePrepareOutput(_ context.Context, bs *buildState) error {
	out := bs.builder.outputDir
	if err := os.RemoveAll(out); err != nil {
		return blogerrors.Wrap(err, blogerrors.CategoryFileSystem, blogerrors.SeverityFatal, "failed to clear output directory").
			WithContext("path", out)
	}
	if err := os.MkdirAll(out, 0o755); err != nil {
		return blogerrors.Wrap(err, blogerrors.CategoryFileSystem, blogerrors.SeverityFatal, "failed to create output directory").
			WithContext("path", out)
	}
	return nil
}

// stageCopyStatic copies the theme's static assets to output/static. A theme
// without a static directory degrades to a warning.
func stageCopyStatic(_ context.Context, bs *buildState) error {
	src := bs.builder.theme.StaticDir()
	if src == "" {
		return blogerrors.New(blogerrors.CategoryFileSystem, blogerrors.SeverityWarning, "theme has no static directory, skipping asset copy")
	}
	dst := filepath.Join(bs.builder.outputDir, "static")
	if err := copyTree(src, dst); err != nil {
		return blogerrors.Wrap(err, blogerrors.CategoryFileSystem, blogerrors.SeverityFatal, "failed to copy static assets").
			WithContext("source", src)
	}
	slog.Debug("static assets copied", logfields.Path(src), logfields.Output(dst))
	return nil
}

// stageCopyImages copies images referenced by posts into
// output/assets/images, mirroring their layout below the markdown root.
// Missing or out-of-root images are skipped with a warning.
func stageCopyImages(_ context.Context, bs *buildState) error {
	mdRoot, err := filepath.Abs(bs.builder.mdDir)
	if err != nil {
		return blogerrors.Wrap(err, blogerrors.CategoryFileSystem, blogerrors.SeverityFatal, "failed to resolve markdown directory")
	}
	dest := filepath.Join(bs.builder.outputDir, "assets", "images")

	copied, skipped := 0, 0
	for _, post := range bs.posts {
		for _, img := range post.Images {
			rel, err := filepath.Rel(mdRoot, img)
			if err != nil || strings.HasPrefix(rel, "..") {
				slog.Warn("image outside markdown directory, skipping", logfields.Path(img))
				skipped++
				continue
			}
			if _, err := os.Stat(img); err != nil {
				slog.Warn("referenced image does not exist, skipping", logfields.Path(img))
				skipped++
				continue
			}
			if err := copyFile(img, filepath.Join(dest, rel)); err != nil {
				slog.Warn("failed to copy image", logfields.Path(img), logfields.Error(err))
				skipped++
				continue
			}
			copied++
		}
	}

	if copied > 0 {
		slog.Info("post images copied", logfields.Count(copied))
	}
	if skipped > 0 {
		return blogerrors.New(blogerrors.CategoryFileSystem, blogerrors.SeverityWarning, "some referenced images could not be copied").
			WithContext("skipped", skipped)
	}
	return nil
}

// stageIndexPages renders the home page and, when posts_per_page is
// configured, one page per pagination slice under page/.
func stageIndexPages(_ context.Context, bs *buildState) error {
	perPage := bs.builder.cfg.GetInt("theme_config.posts_per_page", 0)

	if perPage <= 0 {
		html, err := bs.builder.renderer.RenderIndex(bs.posts, 1, 0)
		if err != nil {
			return err
		}
		return bs.writePage("index.html", html)
	}

	totalPages := (len(bs.posts) + perPage - 1) / perPage
	if totalPages == 0 {
		// An empty blog still gets a home page.
		totalPages = 1
	}
	for page := 1; page <= totalPages; page++ {
		html, err := bs.builder.renderer.RenderIndex(bs.posts, page, perPage)
		if err != nil {
			return err
		}
		relPath := "index.html"
		if page > 1 {
			relPath = filepath.Join("page", strconv.Itoa(page)+".html")
		}
		if err := bs.writePage(relPath, html); err != nil {
			return err
		}
	}
	slog.Debug("index pages written", logfields.Count(totalPages))
	return nil
}

// stagePostPages renders every post page concurrently and writes it below
// output/posts, preserving the source directory structure.
func stagePostPages(ctx context.Context, bs *buildState) error {
	workers := runtime.GOMAXPROCS(0)
	if workers > len(bs.posts) {
		workers = len(bs.posts)
	}
	if workers == 0 {
		return nil
	}

	tasks := make(chan *content.Post)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for post := range tasks {
				html, err := bs.builder.renderer.RenderPost(post)
				if err == nil {
					err = bs.writePage(filepath.Join("posts", filepath.FromSlash(post.RelativePath)+".html"), html)
				}
				if err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = blogerrors.Wrap(err, blogerrors.CategoryGeneration, blogerrors.SeverityFatal, "failed to generate post page").
							WithContext("post", post.RelativePath)
					}
					mu.Unlock()
				}
			}
		}()
	}

	for _, post := range bs.posts {
		select {
		case <-ctx.Done():
			close(tasks)
			wg.Wait()
			return ctx.Err()
		case tasks <- post:
		}
	}
	close(tasks)
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	slog.Debug("post pages written", logfields.Count(len(bs.posts)))
	return nil
}

// stageTagPages renders the tag index and one listing page per tag. A blog
// without tags skips the stage entirely.
func stageTagPages(_ context.Context, bs *buildState) error {
	if len(bs.tags) == 0 {
		slog.Info("no tags found, skipping tag pages")
		return nil
	}

	html, err := bs.builder.renderer.RenderTagsIndex(bs.tags)
	if err != nil {
		return err
	}
	if err := bs.writePage(filepath.Join("tags", "index.html"), html); err != nil {
		return err
	}

	for tag, posts := range bs.tags {
		html, err := bs.builder.renderer.RenderTagPage(tag, posts)
		if err != nil {
			return err
		}
		if err := bs.writePage(filepath.Join("tags", slugify.Safe(tag)+".html"), html); err != nil {
			return err
		}
	}
	slog.Debug("tag pages written", logfields.Count(len(bs.tags)))
	return nil
}

// stageArchivePage renders archive.html. Archive is an optional output, so a
// render failure degrades to a warning.
func stageArchivePage(_ context.Context, bs *buildState) error {
	html, err := bs.builder.renderer.RenderArchive(bs.posts)
	if err != nil {
		return blogerrors.Wrap(err, blogerrors.CategoryRender, blogerrors.SeverityWarning, "skipping archive page")
	}
	return bs.writePage("archive.html", html)
}

// stageRSSFeed writes rss.xml unless build.generate_rss disables it. The
// feed is optional, so failures degrade to warnings.
func stageRSSFeed(_ context.Context, bs *buildState) error {
	if !bs.builder.cfg.BuildSection().GenerateRSS {
		slog.Debug("rss generation disabled")
		return nil
	}
	feed, err := buildRSS(bs.builder.cfg.SiteSection(), bs.posts)
	if err != nil {
		return blogerrors.Wrap(err, blogerrors.CategoryGeneration, blogerrors.SeverityWarning, "skipping rss feed")
	}
	return bs.writeFile("rss.xml", feed)
}

// stageSitemap writes sitemap.xml unless build.generate_sitemap disables it.
func stageSitemap(_ context.Context, bs *buildState) error {
	if !bs.builder.cfg.BuildSection().GenerateSitemap {
		slog.Debug("sitemap generation disabled")
		return nil
	}
	sm, err := buildSitemap(bs.builder.cfg.SiteSection(), bs.posts, bs.tags, bs.builder.buildTime)
	if err != nil {
		return blogerrors.Wrap(err, blogerrors.CategoryGeneration, blogerrors.SeverityWarning, "skipping sitemap")
	}
	return bs.writeFile("sitemap.xml", sm)
}

// stageSearchIndex writes search-index.json with the metadata of every post.
func stageSearchIndex(_ context.Context, bs *buildState) error {
	index, err := buildSearchIndex(bs.posts, bs.builder.buildTime)
	if err != nil {
		return blogerrors.Wrap(err, blogerrors.CategoryGeneration, blogerrors.SeverityWarning, "skipping search index")
	}
	return bs.writeFile("search-index.json", index)
}
