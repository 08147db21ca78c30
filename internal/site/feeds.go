package site

import (
	"encoding/xml"
	"strings"

	"git.home.luguber.info/inful/mblog/internal/config"
	"git.home.luguber.info/inful/mblog/internal/content"
)

// rssMaxItems caps how many posts the feed carries.
const rssMaxItems = 20

// rssPubDateLayout is RFC 822 with a fixed +0000 zone, matching what feed
// readers expect in pubDate.
const rssPubDateLayout = "Mon, 02 Jan 2006 15:04:05 +0000"

type rssAtomLink struct {
	XMLName xml.Name `xml:"atom:link"`
	Href    string   `xml:"href,attr"`
	Rel     string   `xml:"rel,attr"`
	Type    string   `xml:"type,attr"`
}

type rssItem struct {
	XMLName     xml.Name `xml:"item"`
	Title       string   `xml:"title"`
	Link        string   `xml:"link"`
	Description string   `xml:"description"`
	PubDate     string   `xml:"pubDate"`
	GUID        string   `xml:"guid"`
	Categories  []string `xml:"category"`
}

type rssChannel struct {
	Title       string      `xml:"title"`
	Link        string      `xml:"link"`
	Description string      `xml:"description"`
	Language    string      `xml:"language"`
	AtomLink    rssAtomLink `xml:"atom:link"`
	Items       []rssItem   `xml:"item"`
}

type rssFeed struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	AtomNS  string     `xml:"xmlns:atom,attr"`
	Channel rssChannel `xml:"channel"`
}

// buildRSS renders an RSS 2.0 feed of the newest posts.
func buildRSS(site config.Site, posts []*content.Post) (string, error) {
	siteURL := strings.TrimRight(site.URL, "/")

	feed := rssFeed{
		Version: "2.0",
		AtomNS:  "http://www.w3.org/2005/Atom",
		Channel: rssChannel{
			Title:       site.Title,
			Link:        siteURL,
			Description: site.Description,
			Language:    site.Language,
			AtomLink: rssAtomLink{
				Href: siteURL + "/rss.xml",
				Rel:  "self",
				Type: "application/rss+xml",
			},
		},
	}

	limit := len(posts)
	if limit > rssMaxItems {
		limit = rssMaxItems
	}
	for _, post := range posts[:limit] {
		postURL := siteURL + post.OutputURL()
		feed.Channel.Items = append(feed.Channel.Items, rssItem{
			Title:       post.Title,
			Link:        postURL,
			Description: feedDescription(post),
			PubDate:     post.Date.Format(rssPubDateLayout),
			GUID:        postURL,
			Categories:  post.Tags,
		})
	}

	out, err := xml.MarshalIndent(feed, "", "  ")
	if err != nil {
		return "", err
	}
	return xml.Header + string(out), nil
}

// feedDescription prefers the explicit description and falls back to the
// leading part of the rendered body.
func feedDescription(post *content.Post) string {
	if post.Description != "" {
		return post.Description
	}
	runes := []rune(post.HTML)
	if len(runes) > 200 {
		runes = runes[:200]
	}
	return string(runes)
}
