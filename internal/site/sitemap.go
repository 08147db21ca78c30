package site

import (
	"encoding/xml"
	"sort"
	"strings"
	"time"

	"git.home.luguber.info/inful/mblog/internal/config"
	"git.home.luguber.info/inful/mblog/internal/content"
	"git.home.luguber.info/inful/mblog/internal/slugify"
)

const sitemapDateLayout = "2006-01-02"

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod"`
	ChangeFreq string `xml:"changefreq"`
	Priority   string `xml:"priority"`
}

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

// buildSitemap renders sitemap.xml. Post entries use the post date as
// lastmod; the structural pages use the build time. Priorities rank the home
// page above the listings and the listings above individual posts.
func buildSitemap(site config.Site, posts []*content.Post, tags map[string][]*content.Post, buildTime time.Time) (string, error) {
	siteURL := strings.TrimRight(site.URL, "/")
	today := buildTime.Format(sitemapDateLayout)

	set := sitemapURLSet{
		Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs: []sitemapURL{
			{Loc: siteURL + "/", LastMod: today, ChangeFreq: "daily", Priority: "1.0"},
			{Loc: siteURL + "/archive.html", LastMod: today, ChangeFreq: "weekly", Priority: "0.8"},
			{Loc: siteURL + "/tags/", LastMod: today, ChangeFreq: "weekly", Priority: "0.8"},
		},
	}

	for _, post := range posts {
		set.URLs = append(set.URLs, sitemapURL{
			Loc:        siteURL + post.OutputURL(),
			LastMod:    post.Date.Format(sitemapDateLayout),
			ChangeFreq: "monthly",
			Priority:   "0.6",
		})
	}

	names := make([]string, 0, len(tags))
	for name := range tags {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		set.URLs = append(set.URLs, sitemapURL{
			Loc:        siteURL + "/tags/" + slugify.Safe(name) + ".html",
			LastMod:    today,
			ChangeFreq: "weekly",
			Priority:   "0.5",
		})
	}

	out, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return "", err
	}
	return xml.Header + string(out), nil
}
