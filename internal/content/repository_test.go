package content

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadAll_SortsByDescendingDate(t *testing.T) {
	root := t.TempDir()
	writePost(t, root, "a.md", "---\ntitle: Oldest\ndate: \"2023-01-01\"\n---\nbody\n")
	writePost(t, root, "b.md", "---\ntitle: Newest\ndate: \"2024-06-01\"\n---\nbody\n")
	writePost(t, root, "sub/c.md", "---\ntitle: Middle\ndate: \"2024-01-01\"\n---\nbody\n")

	repo, err := NewRepository(root)
	require.NoError(t, err)

	posts, err := repo.LoadAll()
	require.NoError(t, err)
	require.Len(t, posts, 3)
	require.Equal(t, "Newest", posts[0].Title)
	require.Equal(t, "Middle", posts[1].Title)
	require.Equal(t, "Oldest", posts[2].Title)
	require.Equal(t, "sub/c", posts[1].RelativePath)
}

func TestLoadAll_EqualDates_TieBreaksBySourcePath(t *testing.T) {
	root := t.TempDir()
	writePost(t, root, "zeta.md", "---\ntitle: Z\ndate: \"2024-01-01\"\n---\nbody\n")
	writePost(t, root, "alpha.md", "---\ntitle: A\ndate: \"2024-01-01\"\n---\nbody\n")

	repo, err := NewRepository(root)
	require.NoError(t, err)

	posts, err := repo.LoadAll()
	require.NoError(t, err)
	require.Len(t, posts, 2)
	require.Equal(t, "A", posts[0].Title)
	require.Equal(t, "Z", posts[1].Title)
}

func TestLoadAll_BadFileIsSkipped_RestSucceeds(t *testing.T) {
	root := t.TempDir()
	writePost(t, root, "good.md", "---\ntitle: Good\ndate: \"2024-01-01\"\n---\nbody\n")
	writePost(t, root, "bad.md", "body without a title\n")

	repo, err := NewRepository(root)
	require.NoError(t, err)

	posts, err := repo.LoadAll()
	require.NoError(t, err)
	require.Len(t, posts, 1)
	require.Equal(t, "Good", posts[0].Title)
	require.Equal(t, 1, repo.Skipped)
}

func TestLoadAll_MissingRoot_ReturnsEmptyList(t *testing.T) {
	repo, err := NewRepository(t.TempDir() + "/absent")
	require.NoError(t, err)

	posts, err := repo.LoadAll()
	require.NoError(t, err)
	require.Empty(t, posts)
}

func TestLoadAll_NonMarkdownFilesIgnored(t *testing.T) {
	root := t.TempDir()
	writePost(t, root, "post.md", "---\ntitle: P\ndate: \"2024-01-01\"\n---\nbody\n")
	writePost(t, root, "notes.txt", "not markdown")
	writePost(t, root, "img/data.png", "binary-ish")

	repo, err := NewRepository(root)
	require.NoError(t, err)

	posts, err := repo.LoadAll()
	require.NoError(t, err)
	require.Len(t, posts, 1)
}
