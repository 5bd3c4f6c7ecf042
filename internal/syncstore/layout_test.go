package syncstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPathHelpers(t *testing.T) {
	assert.Equal(t, "categories/notes.json", EntityPath(CategoriesDir, "notes"))
	assert.Equal(t, "static-files/favicon.ico", AssetPath(StaticFilesDir, "favicon.ico"))
	assert.Equal(t, "themes/dark.json", ThemePath("dark"))
	assert.Equal(t, "posts/index.json", IndexPath(PostsDir))
}

func TestSplitPath(t *testing.T) {
	dir, name := SplitPath("posts/a-post.json")
	assert.Equal(t, "posts", dir)
	assert.Equal(t, "a-post.json", name)

	dir, name = SplitPath("blog.json")
	assert.Empty(t, dir)
	assert.Equal(t, "blog.json", name)
}

func TestEntityID(t *testing.T) {
	assert.Equal(t, "a-post", EntityID("a-post.json"))
	assert.Equal(t, "favicon.ico", EntityID("favicon.ico"), "non-json names pass through")
}

func TestIsIndexPath(t *testing.T) {
	assert.True(t, IsIndexPath("posts/index.json"))
	assert.False(t, IsIndexPath("posts/a-post.json"))
	assert.False(t, IsIndexPath("blog.json"))
}

func TestEmbedImageFilenameIsStable(t *testing.T) {
	a := EmbedImageFilename("https://img.example/pic.png")
	b := EmbedImageFilename("https://img.example/pic.png")
	c := EmbedImageFilename("https://img.example/other.png")

	assert.Equal(t, a, b, "same source url must map to the same filename")
	assert.NotEqual(t, a, c)
	assert.Regexp(t, `^[0-9a-f]{16}\.img$`, a)
}
