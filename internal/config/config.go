// Package config loads and validates the blog configuration file.
//
// The file is YAML. Values may reference environment variables with $VAR or
// ${VAR} syntax; a .env file next to the working directory is loaded first so
// secrets (e.g. post passwords) can stay out of the config file.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	blogerrors "git.home.luguber.info/inful/mblog/internal/errors"
)

// Config holds the parsed configuration tree. The typed sections cover the
// fields the pipeline reads directly; Get serves everything else (template
// contexts, theme_config extras) through dotted-path lookup.
type Config struct {
	raw map[string]any
}

// Site section fields consumed by rendering, feeds and the sitemap.
type Site struct {
	Title       string
	Description string
	Author      string
	URL         string
	Language    string
	BasePath    string
}

// Build section fields consumed by the site builder.
type Build struct {
	OutputDir       string
	Theme           string
	MarkdownDir     string
	GenerateRSS     bool
	GenerateSitemap bool
}

// Load reads, expands and validates the configuration file.
func Load(configPath string) (*Config, error) {
	// A missing .env is fine; expansion then only sees the process env.
	_ = godotenv.Load()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, blogerrors.ConfigNotFound(configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, blogerrors.Wrap(err, blogerrors.CategoryConfig, blogerrors.SeverityFatal, "failed to read configuration file")
	}

	expanded := os.ExpandEnv(string(data))

	var raw map[string]any
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, blogerrors.Wrap(err, blogerrors.CategoryConfig, blogerrors.SeverityFatal, "failed to parse configuration file")
	}
	if raw == nil {
		raw = map[string]any{}
	}

	cfg := &Config{raw: raw}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate enforces the required sections and fields.
func (c *Config) validate() error {
	for _, section := range []string{"site", "build"} {
		if _, ok := c.raw[section]; !ok {
			return blogerrors.ConfigRequired(section)
		}
	}
	for _, field := range []string{"site.title", "site.description", "site.author"} {
		if c.Get(field, nil) == nil {
			return blogerrors.ConfigRequired(field)
		}
	}
	for _, field := range []string{"build.output_dir", "build.theme"} {
		if c.Get(field, nil) == nil {
			return blogerrors.ConfigRequired(field)
		}
	}
	return nil
}

// Get returns the value at a dotted path ("site.title"), or def when any
// segment is missing.
func (c *Config) Get(key string, def any) any {
	value := any(c.raw)
	for _, k := range strings.Split(key, ".") {
		m, ok := value.(map[string]any)
		if !ok {
			return def
		}
		value, ok = m[k]
		if !ok {
			return def
		}
	}
	return value
}

// GetString returns the value at key coerced to a string, or def when absent
// or not a string.
func (c *Config) GetString(key, def string) string {
	if s, ok := c.Get(key, def).(string); ok {
		return s
	}
	return def
}

// GetBool returns the value at key as a bool, or def when absent or not a bool.
func (c *Config) GetBool(key string, def bool) bool {
	if b, ok := c.Get(key, def).(bool); ok {
		return b
	}
	return def
}

// GetInt returns the value at key as an int, or def when absent or not an
// integer-valued number.
func (c *Config) GetInt(key string, def int) int {
	switch v := c.Get(key, def).(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return def
	}
}

// SiteSection returns the typed site configuration.
func (c *Config) SiteSection() Site {
	return Site{
		Title:       c.GetString("site.title", ""),
		Description: c.GetString("site.description", ""),
		Author:      c.GetString("site.author", ""),
		URL:         c.GetString("site.url", "https://example.com"),
		Language:    c.GetString("site.language", "en"),
		BasePath:    c.GetString("site.base_path", ""),
	}
}

// BuildSection returns the typed build configuration with defaults applied.
func (c *Config) BuildSection() Build {
	return Build{
		OutputDir:       c.GetString("build.output_dir", "public"),
		Theme:           c.GetString("build.theme", ""),
		MarkdownDir:     c.GetString("build.md_dir", "md"),
		GenerateRSS:     c.GetBool("build.generate_rss", true),
		GenerateSitemap: c.GetBool("build.generate_sitemap", true),
	}
}

// SiteMap returns the raw site section as a map for template contexts.
func (c *Config) SiteMap() map[string]any {
	if m, ok := c.Get("site", nil).(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

// Data exposes the full configuration tree (read-only usage by templates).
func (c *Config) Data() map[string]any {
	return c.raw
}

// Init writes a starter configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return blogerrors.New(blogerrors.CategoryValidation, blogerrors.SeverityFatal,
			fmt.Sprintf("configuration file already exists: %s (use --force to overwrite)", configPath))
	}

	starter := `site:
  title: My Blog
  description: Yet another blog
  author: anonymous
  url: https://example.com
  language: en

build:
  md_dir: md
  output_dir: public
  theme: themes/default
  generate_rss: true
  generate_sitemap: true

theme_config:
  posts_per_page: 10
  date_format: "2006-01-02"
`
	if err := os.WriteFile(configPath, []byte(starter), 0o644); err != nil {
		return blogerrors.Wrap(err, blogerrors.CategoryFileSystem, blogerrors.SeverityFatal, "failed to write configuration file")
	}
	return nil
}
