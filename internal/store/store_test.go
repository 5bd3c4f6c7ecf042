package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillbox/quillbox/internal/blog"
)

// both implementations must satisfy the same contract
func forEachStore(t *testing.T, fn func(t *testing.T, s ContentStore)) {
	t.Run("memory", func(t *testing.T) {
		fn(t, NewMemoryStore())
	})
	t.Run("sqlite", func(t *testing.T) {
		s, err := OpenSQLiteStore(filepath.Join(t.TempDir(), "content.db"))
		require.NoError(t, err)
		t.Cleanup(func() { s.Close() })
		fn(t, s)
	})
}

func TestBlogRoundTrip(t *testing.T) {
	forEachStore(t, func(t *testing.T, s ContentStore) {
		_, err := s.GetBlog()
		assert.ErrorIs(t, err, ErrNoBlog)

		in := &blog.Blog{
			Name:        "Field Notes",
			Description: "notes from the field",
			Author:      "jo",
			ThemeID:     "default",
			UpdatedAt:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		}
		require.NoError(t, s.SetBlog(in))

		got, err := s.GetBlog()
		require.NoError(t, err)
		assert.Equal(t, in.Name, got.Name)
		assert.Equal(t, in.ThemeID, got.ThemeID)
		assert.True(t, in.UpdatedAt.Equal(got.UpdatedAt))
	})
}

func TestCategoryCRUD(t *testing.T) {
	forEachStore(t, func(t *testing.T, s ContentStore) {
		c := &blog.Category{Name: "Travel", Ordering: 2}
		require.NoError(t, s.CreateCategory(c))
		require.NotEmpty(t, c.LocalID)

		c.SyncID = "cat-travel"
		c.Name = "Travels"
		require.NoError(t, s.UpdateCategory(c))

		got, err := s.GetCategoryBySyncID("cat-travel")
		require.NoError(t, err)
		assert.Equal(t, "Travels", got.Name)
		assert.Equal(t, c.LocalID, got.LocalID)

		require.NoError(t, s.DeleteCategory(c.LocalID))
		_, err = s.GetCategory(c.LocalID)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestPostRoundTripWithEmbed(t *testing.T) {
	forEachStore(t, func(t *testing.T, s ContentStore) {
		published := time.Date(2025, 5, 20, 8, 30, 0, 0, time.UTC)
		title := "A view"
		p := &blog.Post{
			Title:       "Hello World",
			Content:     "# hi\n\nfirst post",
			Stub:        "hello-world",
			CreatedAt:   time.Date(2025, 5, 19, 10, 0, 0, 0, time.UTC),
			UpdatedAt:   time.Date(2025, 5, 20, 8, 30, 0, 0, time.UTC),
			PublishedAt: &published,
			CategoryIDs: []string{"cat-travel"},
			TagIDs:      []string{"tag-go", "tag-notes"},
			Embed: &blog.Embed{
				Kind:  blog.EmbedImages,
				Title: &title,
				Images: []blog.EmbedImage{
					{SourceURL: "https://pics.example/1.jpg", Data: []byte{0xff, 0xd8}},
				},
			},
		}
		require.NoError(t, s.CreatePost(p))

		got, err := s.GetPost(p.LocalID)
		require.NoError(t, err)
		assert.Equal(t, "hello-world", got.Stub)
		assert.Equal(t, []string{"tag-go", "tag-notes"}, got.TagIDs)
		require.NotNil(t, got.Embed)
		assert.Equal(t, blog.EmbedImages, got.Embed.Kind)
		require.Len(t, got.Embed.Images, 1)
		assert.Equal(t, "https://pics.example/1.jpg", got.Embed.Images[0].SourceURL)
		require.NotNil(t, got.PublishedAt)
		assert.True(t, published.Equal(*got.PublishedAt))
	})
}

func TestListPostsExcludesDrafts(t *testing.T) {
	forEachStore(t, func(t *testing.T, s ContentStore) {
		now := time.Now().UTC().Truncate(time.Second)
		require.NoError(t, s.CreatePost(&blog.Post{Title: "pub", Stub: "pub", CreatedAt: now, UpdatedAt: now}))
		require.NoError(t, s.CreatePost(&blog.Post{Title: "wip", Stub: "wip", IsDraft: true, CreatedAt: now.Add(time.Second), UpdatedAt: now}))

		published, err := s.ListPosts(false)
		require.NoError(t, err)
		require.Len(t, published, 1)
		assert.Equal(t, "pub", published[0].Stub)

		all, err := s.ListPosts(true)
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})
}

func TestUpdateMissingEntity(t *testing.T) {
	forEachStore(t, func(t *testing.T, s ContentStore) {
		err := s.UpdateTag(&blog.Tag{LocalID: "nope", Name: "x"})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestStaticFileRoundTrip(t *testing.T) {
	forEachStore(t, func(t *testing.T, s ContentStore) {
		f := &blog.StaticFile{SyncID: "robots.txt", Filename: "robots.txt", Data: []byte("User-agent: *\n")}
		require.NoError(t, s.CreateStaticFile(f))

		got, err := s.GetStaticFileBySyncID("robots.txt")
		require.NoError(t, err)
		assert.Equal(t, f.Data, got.Data)

		files, err := s.ListStaticFiles()
		require.NoError(t, err)
		assert.Len(t, files, 1)
	})
}
