package content

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"git.home.luguber.info/inful/mblog/internal/logfields"
)

// Repository discovers and loads all posts under a content root.
type Repository struct {
	root   string
	parser *Parser

	// Skipped counts files that failed to parse during the last LoadAll.
	Skipped int
}

// NewRepository creates a repository over the given content root.
func NewRepository(root string) (*Repository, error) {
	parser, err := NewParser(root)
	if err != nil {
		return nil, err
	}
	return &Repository{root: parser.root, parser: parser}, nil
}

// LoadAll recursively enumerates Markdown files under the root and parses
// them in parallel. Files that fail to parse are logged and skipped; the call
// only fails on enumeration errors. Results are sorted by descending publish
// date; ties break by ascending source path so ordering is deterministic.
func (r *Repository) LoadAll() ([]*Post, error) {
	r.Skipped = 0

	if _, err := os.Stat(r.root); os.IsNotExist(err) {
		slog.Warn("Content root does not exist", logfields.Path(r.root))
		return []*Post{}, nil
	}

	var files []string
	err := filepath.WalkDir(r.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".md") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	posts := r.parseAll(files)

	sort.Slice(posts, func(i, j int) bool {
		if !posts[i].Date.Equal(posts[j].Date) {
			return posts[i].Date.After(posts[j].Date)
		}
		return posts[i].SourcePath < posts[j].SourcePath
	})

	slog.Info("Loaded posts", logfields.Count(len(posts)), slog.Int("skipped", r.Skipped))
	return posts, nil
}

// parseAll runs the per-file parser on a bounded worker pool. Each file is
// independent; ordering is restored by the caller's sort.
func (r *Repository) parseAll(files []string) []*Post {
	concurrency := runtime.GOMAXPROCS(0)
	if concurrency > len(files) {
		concurrency = len(files)
	}
	if concurrency < 1 {
		concurrency = 1
	}

	tasks := make(chan string)
	var wg sync.WaitGroup
	var mu sync.Mutex
	posts := make([]*Post, 0, len(files))

	worker := func() {
		defer wg.Done()
		for path := range tasks {
			post, err := r.parser.Parse(path)
			if err != nil {
				slog.Warn("Skipping unparseable post", logfields.File(path), logfields.Error(err))
				mu.Lock()
				r.Skipped++
				mu.Unlock()
				continue
			}
			mu.Lock()
			posts = append(posts, post)
			mu.Unlock()
		}
	}

	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go worker()
	}
	for _, path := range files {
		tasks <- path
	}
	close(tasks)
	wg.Wait()

	return posts
}
