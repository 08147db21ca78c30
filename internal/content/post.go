package content

import "time"

// Post is the parsed representation of one Markdown source file. It is
// immutable after construction; renderers that need a modified body build a
// per-render view instead of mutating the Post.
type Post struct {
	SourcePath   string // absolute path of the origin file
	RelativePath string // path relative to the content root, extension stripped, slash-separated
	Slug         string // {YYYY-MM-DD}-{sanitized-title}
	Title        string
	Author       string
	Description  string
	Date         time.Time
	Tags         []string
	Content      string // raw Markdown body, frontmatter stripped
	HTML         string // converted body with image targets already rewritten
	Encrypted    bool
	Password     string         // meaningful only when Encrypted is true
	Metadata     map[string]any // all frontmatter fields
	Images       []string       // absolute paths of local images referenced by the body
}

// OutputURL returns the site-relative URL of the rendered post page.
func (p *Post) OutputURL() string {
	return "/posts/" + p.RelativePath + ".html"
}
