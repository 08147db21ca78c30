// Package content discovers and parses Markdown source files into the Post
// model consumed by the site builder.
package content

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmparser "github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"gopkg.in/yaml.v3"

	blogerrors "git.home.luguber.info/inful/mblog/internal/errors"
	"git.home.luguber.info/inful/mblog/internal/slugify"
)

// dateFormats are tried in order against string date values. First match wins.
var dateFormats = []string{
	"2006-01-02",
	"2006/01/02",
	"2006-01-02 15:04:05",
	"2006/01/02 15:04:05",
	"2006-01-02T15:04:05",
}

// imageRe matches inline image references: ![alt](target)
var imageRe = regexp.MustCompile(`!\[([^\]]*)\]\(([^)]+)\)`)

// Parser converts one Markdown file into a Post. Safe for concurrent use; the
// goldmark engine keeps no per-document state across Convert calls.
type Parser struct {
	root string // absolute content root
	md   goldmark.Markdown
}

// NewParser creates a parser rooted at the content directory. Relative image
// references are resolved against individual files but must stay under root.
func NewParser(root string) (*Parser, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve content root: %w", err)
	}

	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(
			gmparser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			gmhtml.WithHardWraps(),
			gmhtml.WithUnsafe(),
		),
	)

	return &Parser{root: abs, md: md}, nil
}

// Parse reads and parses a single Markdown file.
func (p *Parser) Parse(path string) (*Post, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, blogerrors.ParseFailed(path, err)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, blogerrors.ParseFailed(path, err)
	}

	meta, body := splitFrontmatter(string(data))

	titleVal, ok := meta["title"]
	if !ok {
		return nil, blogerrors.MissingField(path, "title")
	}
	title := fmt.Sprintf("%v", titleVal)

	date, err := p.resolveDate(meta, abs)
	if err != nil {
		return nil, blogerrors.ParseFailed(path, err)
	}

	images, rewritten := p.rewriteImages(body, filepath.Dir(abs))

	html, err := p.convert(rewritten)
	if err != nil {
		return nil, blogerrors.ParseFailed(path, err)
	}

	encrypted, _ := meta["encrypted"].(bool)
	password := stringField(meta, "password")

	return &Post{
		SourcePath:   abs,
		RelativePath: p.relativePath(abs),
		Slug:         date.Format("2006-01-02") + "-" + slugify.Safe(title),
		Title:        title,
		Author:       stringField(meta, "author"),
		Description:  stringField(meta, "description"),
		Date:         date,
		Tags:         parseTags(meta["tags"]),
		Content:      body,
		HTML:         html,
		Encrypted:    encrypted,
		Password:     password,
		Metadata:     meta,
		Images:       images,
	}, nil
}

// splitFrontmatter separates a leading YAML block delimited by --- fences from
// the body. Fences are matched per line with an optional trailing \r, so mixed
// LF and CRLF files split correctly. A missing block, an unterminated fence or
// YAML that fails to unmarshal all degrade to "no frontmatter": empty metadata,
// full body.
func splitFrontmatter(content string) (map[string]any, string) {
	opener, rest, found := strings.Cut(content, "\n")
	if !found || strings.TrimSuffix(opener, "\r") != "---" {
		return map[string]any{}, content
	}

	var block strings.Builder
	for {
		line, tail, more := strings.Cut(rest, "\n")
		if strings.TrimSuffix(line, "\r") == "---" {
			var meta map[string]any
			if err := yaml.Unmarshal([]byte(block.String()), &meta); err != nil {
				return map[string]any{}, content
			}
			if meta == nil {
				meta = map[string]any{}
			}
			return meta, tail
		}
		if !more {
			// Unterminated fence: treat the whole file as body.
			return map[string]any{}, content
		}
		block.WriteString(strings.TrimSuffix(line, "\r"))
		block.WriteString("\n")
		rest = tail
	}
}

// resolveDate applies the date precedence: explicit date-like value, then
// string matched against the accepted formats, then (only when the field is
// entirely absent) the file's modification time.
func (p *Parser) resolveDate(meta map[string]any, path string) (time.Time, error) {
	raw, ok := meta["date"]
	if !ok {
		info, err := os.Stat(path)
		if err != nil {
			return time.Time{}, fmt.Errorf("stat for modification time: %w", err)
		}
		return info.ModTime(), nil
	}

	switch v := raw.(type) {
	case time.Time:
		return v, nil
	case string:
		for _, layout := range dateFormats {
			if t, err := time.Parse(layout, v); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("unrecognized date format: %q", v)
	default:
		return time.Time{}, fmt.Errorf("unsupported date type: %T", raw)
	}
}

// parseTags normalizes the tags frontmatter field: a YAML list of scalars, or
// a single comma-delimited string. Tags are always trimmed; empties dropped.
func parseTags(raw any) []string {
	var candidates []string
	switch v := raw.(type) {
	case nil:
		return nil
	case string:
		candidates = strings.Split(v, ",")
	case []any:
		for _, item := range v {
			candidates = append(candidates, fmt.Sprintf("%v", item))
		}
	default:
		return nil
	}

	tags := make([]string, 0, len(candidates))
	for _, tag := range candidates {
		if t := strings.TrimSpace(tag); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// rewriteImages scans the Markdown body for local image references, records
// their absolute paths, and rewrites targets to the output-site URL scheme
// (/assets/images/{path relative to content root}). External URLs, absolute
// paths, missing files and files outside the content root are left untouched.
func (p *Parser) rewriteImages(body, fileDir string) ([]string, string) {
	var images []string

	rewritten := imageRe.ReplaceAllStringFunc(body, func(match string) string {
		groups := imageRe.FindStringSubmatch(match)
		alt, target := groups[1], groups[2]

		if strings.HasPrefix(target, "http://") ||
			strings.HasPrefix(target, "https://") ||
			strings.HasPrefix(target, "//") ||
			strings.HasPrefix(target, "/") {
			return match
		}

		abs := filepath.Clean(filepath.Join(fileDir, filepath.FromSlash(target)))
		rel, err := filepath.Rel(p.root, abs)
		if err != nil || strings.HasPrefix(rel, "..") {
			return match
		}
		if info, err := os.Stat(abs); err != nil || info.IsDir() {
			return match
		}

		images = append(images, abs)
		return fmt.Sprintf("![%s](/assets/images/%s)", alt, filepath.ToSlash(rel))
	})

	return images, rewritten
}

// convert renders Markdown to HTML.
func (p *Parser) convert(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := p.md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("markdown conversion: %w", err)
	}
	return buf.String(), nil
}

// relativePath computes the slash-separated path of path relative to the
// content root with the extension stripped. Files outside the root fall back
// to the bare file name.
func (p *Parser) relativePath(path string) string {
	rel, err := filepath.Rel(p.root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		rel = filepath.Base(path)
	}
	return filepath.ToSlash(strings.TrimSuffix(rel, filepath.Ext(rel)))
}

func stringField(meta map[string]any, key string) string {
	if s, ok := meta[key].(string); ok {
		return s
	}
	return ""
}
