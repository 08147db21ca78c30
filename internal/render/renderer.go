// Package render turns posts and post collections into page markup through a
// theme's templates.
package render

import (
	"html/template"
	"sort"
	"strconv"
	"time"

	"git.home.luguber.info/inful/mblog/internal/config"
	"git.home.luguber.info/inful/mblog/internal/content"
	"git.home.luguber.info/inful/mblog/internal/crypt"
	blogerrors "git.home.luguber.info/inful/mblog/internal/errors"
	"git.home.luguber.info/inful/mblog/internal/theme"
)

// encryptedNotice is shown through the regular post template when a post is
// encrypted but the active theme ships no encrypted_post template.
const encryptedNotice = `<div class="encrypted-notice"><p>This post is encrypted, but the active theme does not support encrypted posts.</p><p>Switch to a theme that provides an encrypted_post template to display it.</p></div>`

// PostView is the immutable per-render projection of a Post handed to
// templates. Building a fresh view per render (instead of temporarily
// mutating the shared Post) keeps concurrent rendering of the same post safe.
type PostView struct {
	Title        string
	Author       string
	Description  string
	Slug         string
	RelativePath string
	URL          string
	Date         time.Time
	Tags         []string
	Body         template.HTML
	Encrypted    bool
	Metadata     map[string]any
}

// NewPostView projects a post with its canonical body.
func NewPostView(post *content.Post) PostView {
	return newPostView(post, post.HTML)
}

func newPostView(post *content.Post, body string) PostView {
	return PostView{
		Title:        post.Title,
		Author:       post.Author,
		Description:  post.Description,
		Slug:         post.Slug,
		RelativePath: post.RelativePath,
		URL:          post.OutputURL(),
		Date:         post.Date,
		Tags:         post.Tags,
		Body:         template.HTML(body),
		Encrypted:    post.Encrypted,
		Metadata:     post.Metadata,
	}
}

// Pagination describes one page of a paginated index.
type Pagination struct {
	Page       int
	TotalPages int
	TotalPosts int
	HasPrev    bool
	HasNext    bool
	PrevURL    string
	NextURL    string
}

// TagStat summarizes one tag for the tag index view.
type TagStat struct {
	Name  string
	Count int
	Posts []PostView
}

// ArchiveMonth groups the posts of one month.
type ArchiveMonth struct {
	Month time.Month
	Posts []PostView
}

// ArchiveYear groups months of one year, newest month first.
type ArchiveYear struct {
	Year   int
	Months []ArchiveMonth
}

// Renderer selects templates per page kind and renders them through the
// injected engine.
type Renderer struct {
	theme     *theme.Theme
	cfg       *config.Config
	engine    Engine
	encryptor *crypt.Encryptor
	basePath  string
}

// NewRenderer creates a renderer over a loaded theme.
func NewRenderer(th *theme.Theme, cfg *config.Config, engine Engine) *Renderer {
	return &Renderer{
		theme:     th,
		cfg:       cfg,
		engine:    engine,
		encryptor: crypt.New(),
		basePath:  normalizeBasePath(cfg.SiteSection().BasePath),
	}
}

// globals returns the context entries shared by every page kind.
func (r *Renderer) globals() map[string]any {
	return map[string]any{
		"site":   r.cfg.SiteMap(),
		"config": r.cfg.Data(),
		"theme": map[string]any{
			"name":    r.theme.Name(),
			"version": r.theme.Version(),
		},
		"currentYear": time.Now().Year(),
	}
}

// render resolves the logical template through the theme and executes it.
func (r *Renderer) render(logical string, data map[string]any) (string, error) {
	path, err := r.theme.Template(logical)
	if err != nil {
		return "", err
	}
	out, err := r.engine.Render(path, data)
	if err != nil {
		return "", blogerrors.RenderFailed(logical, err)
	}
	return out, nil
}

// renderWithFallback prefers the named optional template and falls back to
// the index template when the theme does not bind it.
func (r *Renderer) renderWithFallback(logical string, data map[string]any) (string, error) {
	if r.theme.HasTemplate(logical) {
		return r.render(logical, data)
	}
	return r.render("index", data)
}

// RenderIndex renders one page of the post index. perPage <= 0 disables
// pagination and renders all posts on a single page.
func (r *Renderer) RenderIndex(posts []*content.Post, page, perPage int) (string, error) {
	data := r.globals()

	var pagination *Pagination
	visible := posts
	if perPage > 0 {
		totalPosts := len(posts)
		totalPages := (totalPosts + perPage - 1) / perPage
		if totalPages < 1 {
			// An empty blog still gets a home page.
			totalPages = 1
		}

		start := (page - 1) * perPage
		end := start + perPage
		if start > totalPosts {
			start = totalPosts
		}
		if end > totalPosts {
			end = totalPosts
		}
		visible = posts[start:end]

		pagination = &Pagination{
			Page:       page,
			TotalPages: totalPages,
			TotalPosts: totalPosts,
			HasPrev:    page > 1,
			HasNext:    page < totalPages,
		}
		if page == 2 {
			pagination.PrevURL = r.basePath + "/"
		} else if page > 2 {
			pagination.PrevURL = r.basePath + "/page/" + strconv.Itoa(page-1) + ".html"
		}
		if pagination.HasNext {
			pagination.NextURL = r.basePath + "/page/" + strconv.Itoa(page+1) + ".html"
		}
	}

	data["posts"] = views(visible)
	data["pagination"] = pagination
	return r.render("index", data)
}

// RenderPost renders a single post page.
//
// Encrypted posts with a password take one of two paths: with an
// encrypted_post template the body is replaced by the encrypted payload and
// rendered through that template; without one the regular post template shows
// a fixed notice instead of the body. The shared Post is never modified.
func (r *Renderer) RenderPost(post *content.Post) (string, error) {
	data := r.globals()

	if post.Encrypted && post.Password != "" {
		if r.theme.HasTemplate("encrypted_post") {
			payload, err := r.encryptor.Encrypt(post.HTML, post.Password)
			if err != nil {
				return "", blogerrors.Wrap(err, blogerrors.CategoryRender, blogerrors.SeverityFatal, "failed to encrypt post body").
					WithContext("post", post.RelativePath)
			}
			data["post"] = newPostView(post, payload)
			data["encrypted"] = true
			return r.render("encrypted_post", data)
		}

		data["post"] = newPostView(post, encryptedNotice)
		return r.render("post", data)
	}

	data["post"] = NewPostView(post)
	return r.render("post", data)
}

// RenderArchive renders the archive page: posts grouped by year then month.
// A dedicated archive template is preferred; the index template is the
// fallback.
func (r *Renderer) RenderArchive(posts []*content.Post) (string, error) {
	data := r.globals()
	data["posts"] = views(posts)
	data["archive"] = GroupByYearMonth(posts)
	data["isArchive"] = true
	return r.renderWithFallback("archive", data)
}

// RenderTagPage renders the post listing for a single tag, falling back to
// the index template when the theme binds no tag template.
func (r *Renderer) RenderTagPage(tag string, posts []*content.Post) (string, error) {
	data := r.globals()
	data["tag"] = tag
	data["posts"] = views(posts)
	data["isTagPage"] = true
	return r.renderWithFallback("tag", data)
}

// RenderTagsIndex renders the tag summary page (tag name and post count,
// sorted by tag name), falling back to the index template.
func (r *Renderer) RenderTagsIndex(tags map[string][]*content.Post) (string, error) {
	names := make([]string, 0, len(tags))
	for name := range tags {
		names = append(names, name)
	}
	sort.Strings(names)

	stats := make([]TagStat, 0, len(names))
	for _, name := range names {
		stats = append(stats, TagStat{
			Name:  name,
			Count: len(tags[name]),
			Posts: views(tags[name]),
		})
	}

	data := r.globals()
	data["tags"] = stats
	data["isTagsIndex"] = true
	return r.renderWithFallback("tags", data)
}

// AggregateTags maps each tag to the posts carrying it, preserving the
// incoming post order within each tag.
func AggregateTags(posts []*content.Post) map[string][]*content.Post {
	tags := make(map[string][]*content.Post)
	for _, post := range posts {
		for _, tag := range post.Tags {
			tags[tag] = append(tags[tag], post)
		}
	}
	return tags
}

// GroupByYearMonth groups posts by year then month, newest first. Posts are
// expected in descending date order; order within a month is preserved.
func GroupByYearMonth(posts []*content.Post) []ArchiveYear {
	type ym struct {
		year  int
		month time.Month
	}
	byYM := make(map[ym][]PostView)
	for _, post := range posts {
		key := ym{post.Date.Year(), post.Date.Month()}
		byYM[key] = append(byYM[key], NewPostView(post))
	}

	byYear := make(map[int][]ArchiveMonth)
	for key, group := range byYM {
		byYear[key.year] = append(byYear[key.year], ArchiveMonth{Month: key.month, Posts: group})
	}

	years := make([]ArchiveYear, 0, len(byYear))
	for year, months := range byYear {
		sort.Slice(months, func(i, j int) bool { return months[i].Month > months[j].Month })
		years = append(years, ArchiveYear{Year: year, Months: months})
	}
	sort.Slice(years, func(i, j int) bool { return years[i].Year > years[j].Year })
	return years
}

func views(posts []*content.Post) []PostView {
	out := make([]PostView, 0, len(posts))
	for _, post := range posts {
		out = append(out, NewPostView(post))
	}
	return out
}
