package syncstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillbox/quillbox/internal/blog"
	"github.com/quillbox/quillbox/internal/canonical"
	"github.com/quillbox/quillbox/internal/store"
	"github.com/quillbox/quillbox/internal/themes"
	"github.com/quillbox/quillbox/internal/utils"
)

func seededStore(t *testing.T) *store.MemoryStore {
	t.Helper()
	cs := store.NewMemoryStore()
	require.NoError(t, cs.SetBlog(&blog.Blog{
		Name:      "Test Blog",
		Author:    "tester",
		ThemeID:   themes.DefaultThemeID,
		UpdatedAt: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
	}))

	require.NoError(t, cs.CreateCategory(&blog.Category{SyncID: "notes", Name: "Notes"}))
	require.NoError(t, cs.CreateTag(&blog.Tag{SyncID: "misc", Name: "misc"}))

	published := time.Date(2025, 2, 2, 8, 0, 0, 0, time.UTC)
	require.NoError(t, cs.CreatePost(&blog.Post{
		SyncID:      "a-post",
		Title:       "A Post",
		Content:     "body",
		Stub:        "a-post",
		CreatedAt:   published,
		UpdatedAt:   published,
		PublishedAt: &published,
		CategoryIDs: []string{"notes"},
		TagIDs:      []string{"misc"},
	}))
	require.NoError(t, cs.CreatePost(&blog.Post{
		SyncID:    "a-draft",
		Title:     "A Draft",
		Stub:      "a-draft",
		IsDraft:   true,
		CreatedAt: published,
		UpdatedAt: published,
	}))

	require.NoError(t, cs.CreateStaticFile(&blog.StaticFile{Filename: "favicon.ico", Data: []byte{0x00, 0x01}}))
	return cs
}

func generate(t *testing.T, cs store.ContentStore, reg themes.Registry) *Result {
	t.Helper()
	res, err := NewGenerator(cs, reg).Generate(context.Background(), filepath.Join(t.TempDir(), "sync"))
	require.NoError(t, err)
	return res
}

func TestGenerateLayout(t *testing.T) {
	res := generate(t, seededStore(t), themes.NewMapRegistry())

	for _, path := range []string{
		"blog.json",
		"categories/index.json", "categories/notes.json",
		"tags/index.json", "tags/misc.json",
		"posts/index.json", "posts/a-post.json",
		"sidebar/index.json",
		"static-files/index.json", "static-files/favicon.ico",
		"embed-images/index.json",
		"feed.json", "sitemap.xml",
	} {
		assert.Contains(t, res.Manifest.Files, path)
		assert.FileExists(t, filepath.Join(res.Dir, path))
	}

	assert.NotContains(t, res.Manifest.Files, "posts/a-draft.json", "drafts never reach the store")
	assert.NotContains(t, res.Manifest.Files, ManifestPath, "manifest does not list itself")
	assert.Equal(t, len(res.Manifest.Files), res.Manifest.FileCount)
	assert.Equal(t, ProtocolVersion, res.Manifest.Version)
	assert.Equal(t, AppSource, res.Manifest.AppSource)
	assert.Equal(t, "Test Blog", res.Manifest.BlogName)
}

func TestGenerateHashesMatchDiskContent(t *testing.T) {
	res := generate(t, seededStore(t), themes.NewMapRegistry())

	for path, entry := range res.Manifest.Files {
		onDisk, err := utils.FileHash(filepath.Join(res.Dir, path))
		require.NoError(t, err)
		assert.Equal(t, entry.Hash, onDisk, "hash mismatch for %s", path)

		data, err := os.ReadFile(filepath.Join(res.Dir, path))
		require.NoError(t, err)
		assert.Equal(t, entry.Size, int64(len(data)), "size mismatch for %s", path)
	}

	assert.Equal(t, res.Manifest.ContentVersion, res.Manifest.ComputeContentVersion())
}

func TestGenerateIsDeterministic(t *testing.T) {
	cs := seededStore(t)
	res1 := generate(t, cs, themes.NewMapRegistry())
	res2 := generate(t, cs, themes.NewMapRegistry())

	assert.Equal(t, res1.Manifest.ContentVersion, res2.Manifest.ContentVersion)
	assert.Equal(t, res1.FileHashes, res2.FileHashes)
}

func TestGenerateAssignsAndPersistsSyncIDs(t *testing.T) {
	cs := seededStore(t)
	require.NoError(t, cs.CreateTag(&blog.Tag{Name: "unassigned"}))

	generate(t, cs, themes.NewMapRegistry())

	tags, err := cs.ListTags()
	require.NoError(t, err)
	for _, tag := range tags {
		assert.NotEmpty(t, tag.SyncID, "tag %q did not get a sync id", tag.Name)
	}
}

func TestGenerateEmbedImagesAreContentAddressed(t *testing.T) {
	cs := seededStore(t)
	published := time.Date(2025, 2, 3, 9, 0, 0, 0, time.UTC)
	require.NoError(t, cs.CreatePost(&blog.Post{
		SyncID:      "gallery",
		Title:       "Gallery",
		Stub:        "gallery",
		CreatedAt:   published,
		UpdatedAt:   published,
		PublishedAt: &published,
		Embed: &blog.Embed{
			Kind: blog.EmbedImages,
			Images: []blog.EmbedImage{
				{SourceURL: "https://img.example/pic.png", Data: []byte("pixels")},
			},
		},
	}))

	res := generate(t, cs, themes.NewMapRegistry())

	name := EmbedImageFilename("https://img.example/pic.png")
	path := AssetPath(EmbedImagesDir, name)
	require.Contains(t, res.Manifest.Files, path)

	data, err := os.ReadFile(filepath.Join(res.Dir, path))
	require.NoError(t, err)
	assert.Equal(t, []byte("pixels"), data)
}

func TestGenerateFailsOnMissingImageData(t *testing.T) {
	cs := seededStore(t)
	published := time.Date(2025, 2, 3, 9, 0, 0, 0, time.UTC)
	require.NoError(t, cs.CreatePost(&blog.Post{
		SyncID:      "broken",
		Title:       "Broken",
		Stub:        "broken",
		CreatedAt:   published,
		UpdatedAt:   published,
		PublishedAt: &published,
		Embed: &blog.Embed{
			Kind:   blog.EmbedImages,
			Images: []blog.EmbedImage{{SourceURL: "https://img.example/lost.png"}},
		},
	}))

	_, err := NewGenerator(cs, themes.NewMapRegistry()).Generate(context.Background(), filepath.Join(t.TempDir(), "sync"))
	assert.Error(t, err)
}

func TestGenerateNonDefaultTheme(t *testing.T) {
	cs := seededStore(t)
	b, err := cs.GetBlog()
	require.NoError(t, err)
	b.ThemeID = "dark"
	require.NoError(t, cs.SetBlog(b))

	// missing from the registry: generation must fail, not publish silently
	_, err = NewGenerator(cs, themes.NewMapRegistry()).Generate(context.Background(), filepath.Join(t.TempDir(), "sync"))
	require.Error(t, err)

	reg := themes.NewMapRegistry(&blog.Theme{Identifier: "dark", Name: "Dark", Styles: "body{}"})
	res := generate(t, cs, reg)
	assert.Contains(t, res.Manifest.Files, "themes/dark.json")
}

func TestGenerateReplacesPreviousStoreAtomically(t *testing.T) {
	cs := seededStore(t)
	outDir := filepath.Join(t.TempDir(), "sync")

	_, err := NewGenerator(cs, themes.NewMapRegistry()).Generate(context.Background(), outDir)
	require.NoError(t, err)

	// drop a file into the published dir; the next publish must not keep it
	stale := filepath.Join(outDir, "stale.json")
	require.NoError(t, os.WriteFile(stale, []byte("{}"), 0o644))

	_, err = NewGenerator(cs, themes.NewMapRegistry()).Generate(context.Background(), outDir)
	require.NoError(t, err)
	assert.NoFileExists(t, stale)

	// no temp dirs left behind next to the store
	entries, err := os.ReadDir(filepath.Dir(outDir))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestGenerateFailureKeepsPreviousStore(t *testing.T) {
	cs := seededStore(t)
	outDir := filepath.Join(t.TempDir(), "sync")

	res, err := NewGenerator(cs, themes.NewMapRegistry()).Generate(context.Background(), outDir)
	require.NoError(t, err)

	// break the store, then generation must fail and leave the old dir alone
	published := time.Now().UTC()
	require.NoError(t, cs.CreatePost(&blog.Post{
		SyncID:      "bad",
		Title:       "Bad",
		Stub:        "bad",
		CreatedAt:   published,
		UpdatedAt:   published,
		PublishedAt: &published,
		Embed:       &blog.Embed{Kind: blog.EmbedImages, Images: []blog.EmbedImage{{SourceURL: "u"}}},
	}))

	_, err = NewGenerator(cs, themes.NewMapRegistry()).Generate(context.Background(), outDir)
	require.Error(t, err)

	data, err := os.ReadFile(filepath.Join(outDir, ManifestPath))
	require.NoError(t, err)
	var m Manifest
	require.NoError(t, canonical.Unmarshal(data, &m))
	assert.Equal(t, res.Manifest.ContentVersion, m.ContentVersion)
}

func TestGenerateWireFilesAreCanonical(t *testing.T) {
	res := generate(t, seededStore(t), themes.NewMapRegistry())

	data, err := os.ReadFile(filepath.Join(res.Dir, "posts/a-post.json"))
	require.NoError(t, err)

	var f PostFile
	require.NoError(t, canonical.Unmarshal(data, &f))
	again, err := canonical.Marshal(&f)
	require.NoError(t, err)
	assert.Equal(t, data, again, "store files must round-trip byte-identically")
}
