// Package theme resolves a theme directory into the template and static-asset
// contract consumed by the renderer.
//
// A theme is a directory with a templates/ subdirectory (holding at least
// base.html, index.html and post.html), an optional static/ subdirectory and
// an optional theme.json manifest:
//
//	{
//	  "name": "default",
//	  "version": "1.0.0",
//	  "templates": {"index": "index.html", "post": "post.html", "tag": "tag.html"}
//	}
//
// The templates map binds logical names (index, post, archive, tag, tags,
// encrypted_post) to file names under templates/. Without a manifest the map
// defaults to the two mandatory bindings.
package theme

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	blogerrors "git.home.luguber.info/inful/mblog/internal/errors"
)

// Theme is a loaded, validated theme. Construct with Load.
type Theme struct {
	dir       string
	name      string
	version   string
	templates map[string]string
}

// manifest mirrors theme.json.
type manifest struct {
	Name      string            `json:"name"`
	Version   string            `json:"version"`
	Templates map[string]string `json:"templates"`
}

// Load reads and validates the theme at dir.
func Load(dir string) (*Theme, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, blogerrors.ThemeNotFound(dir)
	}
	if err != nil {
		return nil, blogerrors.Wrap(err, blogerrors.CategoryTheme, blogerrors.SeverityFatal, "failed to stat theme directory")
	}
	if !info.IsDir() {
		return nil, blogerrors.ThemeInvalid(fmt.Sprintf("theme path is not a directory: %s", dir))
	}

	t := &Theme{
		dir:     dir,
		name:    filepath.Base(dir),
		version: "1.0.0",
		templates: map[string]string{
			"index": "index.html",
			"post":  "post.html",
		},
	}

	manifestPath := filepath.Join(dir, "theme.json")
	if data, err := os.ReadFile(manifestPath); err == nil {
		var m manifest
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, blogerrors.Wrap(err, blogerrors.CategoryTheme, blogerrors.SeverityFatal, "malformed theme.json")
		}
		if m.Name != "" {
			t.name = m.Name
		}
		if m.Version != "" {
			t.version = m.Version
		}
		if len(m.Templates) > 0 {
			t.templates = m.Templates
		}
	} else if !os.IsNotExist(err) {
		return nil, blogerrors.Wrap(err, blogerrors.CategoryTheme, blogerrors.SeverityFatal, "failed to read theme.json")
	}

	if err := t.validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// validate enforces the structural contract: templates/ with the mandatory
// files, index/post bindings present, static/ a directory if it exists.
func (t *Theme) validate() error {
	templatesDir := filepath.Join(t.dir, "templates")
	if info, err := os.Stat(templatesDir); err != nil || !info.IsDir() {
		return blogerrors.ThemeInvalid("theme is missing the templates directory")
	}

	for _, required := range []string{"base.html", "index.html", "post.html"} {
		if _, err := os.Stat(filepath.Join(templatesDir, required)); err != nil {
			return blogerrors.ThemeInvalid("theme is missing required template file: " + required)
		}
	}

	for _, logical := range []string{"index", "post"} {
		if _, ok := t.templates[logical]; !ok {
			return blogerrors.ThemeInvalid("theme manifest does not bind mandatory template: " + logical)
		}
	}

	staticDir := filepath.Join(t.dir, "static")
	if info, err := os.Stat(staticDir); err == nil && !info.IsDir() {
		return blogerrors.ThemeInvalid("static path exists but is not a directory")
	}

	return nil
}

// HasTemplate reports whether the theme binds the logical template name.
func (t *Theme) HasTemplate(name string) bool {
	_, ok := t.templates[name]
	return ok
}

// Template returns the absolute path of the template bound to the logical
// name. Unbound names and bound-but-missing files are errors.
func (t *Theme) Template(name string) (string, error) {
	file, ok := t.templates[name]
	if !ok {
		return "", blogerrors.TemplateNotConfigured(name)
	}
	if !strings.HasSuffix(file, ".html") {
		file += ".html"
	}

	path := filepath.Join(t.dir, "templates", file)
	if _, err := os.Stat(path); err != nil {
		return "", blogerrors.New(blogerrors.CategoryTheme, blogerrors.SeverityError, "template file does not exist").
			WithContext("template", name).
			WithContext("file", file)
	}
	return path, nil
}

// StaticDir returns the theme's static asset directory, or "" when the theme
// has none.
func (t *Theme) StaticDir() string {
	staticDir := filepath.Join(t.dir, "static")
	if info, err := os.Stat(staticDir); err == nil && info.IsDir() {
		return staticDir
	}
	return ""
}

// TemplatesDir returns the directory holding the theme's template files.
func (t *Theme) TemplatesDir() string {
	return filepath.Join(t.dir, "templates")
}

// Name returns the theme name (manifest name or directory name).
func (t *Theme) Name() string { return t.name }

// Version returns the theme version.
func (t *Theme) Version() string { return t.version }
