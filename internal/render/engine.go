package render

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// Engine renders a named template file with a data context to a string.
// Implementations must escape interpolated values; the production engine is
// html/template whose contextual autoescaping is always on.
type Engine interface {
	Render(templatePath string, data map[string]any) (string, error)
}

// HTMLEngine renders theme templates with html/template. Page templates are
// parsed together with the theme's base.html layout so pages can fill the
// layout's named blocks.
type HTMLEngine struct {
	templatesDir string
	funcs        template.FuncMap
}

// NewHTMLEngine creates an engine over the theme's templates directory.
// dateLayout is the Go reference layout used by the formatDate helper;
// basePath (possibly empty) prefixes URLs built by urlFor/urlForStatic.
func NewHTMLEngine(templatesDir, dateLayout, basePath string) *HTMLEngine {
	if dateLayout == "" {
		dateLayout = "2006-01-02"
	}
	basePath = normalizeBasePath(basePath)

	urlFor := func(path string) string {
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
		return basePath + path
	}

	return &HTMLEngine{
		templatesDir: templatesDir,
		funcs: template.FuncMap{
			"formatDate": func(t time.Time) string {
				return t.Format(dateLayout)
			},
			"formatDateAs": func(layout string, t time.Time) string {
				return t.Format(layout)
			},
			"truncateHTML": TruncateHTML,
			"urlFor":       urlFor,
			"urlForStatic": func(path string) string {
				if !strings.HasPrefix(path, "static/") {
					path = "static/" + path
				}
				return urlFor(path)
			},
		},
	}
}

// Render parses the page template plus the base layout and executes the
// layout. When base.html does not exist next to the page template only the
// page template itself is executed.
func (e *HTMLEngine) Render(templatePath string, data map[string]any) (string, error) {
	files := []string{templatePath}
	execName := filepath.Base(templatePath)

	basePath := filepath.Join(e.templatesDir, "base.html")
	if basePath != templatePath {
		if _, err := os.Stat(basePath); err == nil {
			files = append(files, basePath)
			execName = "base.html"
		}
	}

	tpl, err := template.New(filepath.Base(files[0])).Funcs(e.funcs).ParseFiles(files...)
	if err != nil {
		return "", fmt.Errorf("parse template %s: %w", filepath.Base(templatePath), err)
	}

	var buf bytes.Buffer
	if err := tpl.ExecuteTemplate(&buf, execName, data); err != nil {
		return "", fmt.Errorf("execute template %s: %w", execName, err)
	}
	return buf.String(), nil
}

// normalizeBasePath trims whitespace and ensures a leading but no trailing
// slash; an empty base path stays empty.
func normalizeBasePath(basePath string) string {
	basePath = strings.TrimSpace(basePath)
	if basePath == "" {
		return ""
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	return strings.TrimSuffix(basePath, "/")
}

// TruncateHTML strips markup and truncates the remaining text to at most
// length runes, cutting back to the previous word boundary and appending an
// ellipsis when truncation happened.
func TruncateHTML(htmlText string, length int) string {
	var text strings.Builder
	tokenizer := html.NewTokenizer(strings.NewReader(htmlText))
	for {
		tt := tokenizer.Next()
		if tt == html.ErrorToken {
			break
		}
		if tt == html.TextToken {
			text.Write(tokenizer.Text())
		}
	}

	runes := []rune(text.String())
	if len(runes) <= length {
		return text.String()
	}

	cut := string(runes[:length])
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return cut + "..."
}
