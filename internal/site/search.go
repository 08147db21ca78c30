package site

import (
	"encoding/json"
	"time"

	"git.home.luguber.info/inful/mblog/internal/content"
)

const searchDateLayout = "2006-01-02T15:04:05"

type searchPost struct {
	Title        string   `json:"title"`
	URL          string   `json:"url"`
	Date         string   `json:"date"`
	Tags         []string `json:"tags"`
	Description  string   `json:"description"`
	RelativePath string   `json:"relative_path"`
}

type searchIndex struct {
	Posts       []searchPost `json:"posts"`
	GeneratedAt string       `json:"generated_at"`
	TotalPosts  int          `json:"total_posts"`
}

// buildSearchIndex renders the JSON index consumed by client-side search.
func buildSearchIndex(posts []*content.Post, buildTime time.Time) (string, error) {
	index := searchIndex{
		Posts:       make([]searchPost, 0, len(posts)),
		GeneratedAt: buildTime.Format(searchDateLayout),
		TotalPosts:  len(posts),
	}
	for _, post := range posts {
		tags := post.Tags
		if tags == nil {
			tags = []string{}
		}
		index.Posts = append(index.Posts, searchPost{
			Title:        post.Title,
			URL:          post.OutputURL(),
			Date:         post.Date.Format(searchDateLayout),
			Tags:         tags,
			Description:  post.Description,
			RelativePath: post.RelativePath,
		})
	}

	out, err := json.MarshalIndent(index, "", "  ")
	if err != nil {
		return "", err
	}
	return string(out), nil
}
