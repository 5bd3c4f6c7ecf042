package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillbox/quillbox/internal/blog"
	"github.com/quillbox/quillbox/internal/store"
	"github.com/quillbox/quillbox/internal/syncsdk"
	"github.com/quillbox/quillbox/internal/syncstore"
	"github.com/quillbox/quillbox/internal/themes"
)

func publishTestStore(t *testing.T) string {
	t.Helper()
	cs := store.NewMemoryStore()
	require.NoError(t, cs.SetBlog(&blog.Blog{Name: "Preview", ThemeID: themes.DefaultThemeID, UpdatedAt: time.Now()}))
	published := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, cs.CreatePost(&blog.Post{
		SyncID:      "hello",
		Title:       "Hello",
		Content:     "preview me",
		Stub:        "hello",
		CreatedAt:   published,
		UpdatedAt:   published,
		PublishedAt: &published,
	}))

	dir := filepath.Join(t.TempDir(), "sync")
	_, err := syncstore.NewGenerator(cs, themes.NewMapRegistry()).Generate(context.Background(), dir)
	require.NoError(t, err)
	return dir
}

func TestServeSyncStore(t *testing.T) {
	dir := publishTestStore(t)
	srv := httptest.NewServer(SetupRoutes(dir))
	defer srv.Close()

	client := syncsdk.New(srv.URL)
	manifest, err := client.FetchManifest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Preview", manifest.BlogName)
	assert.Contains(t, manifest.Files, "posts/hello.json")

	entry := manifest.Files["posts/hello.json"]
	data, err := client.FetchFile(context.Background(), "posts/hello.json", entry.Hash)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

func TestHealthAndIndex(t *testing.T) {
	dir := publishTestStore(t)
	srv := httptest.NewServer(SetupRoutes(dir))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestNoDirectoryListing(t *testing.T) {
	dir := publishTestStore(t)
	srv := httptest.NewServer(SetupRoutes(dir))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/sync/posts/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestNewRequiresExistingStore(t *testing.T) {
	_, err := New(&Config{SyncDir: filepath.Join(t.TempDir(), "missing")})
	assert.Error(t, err)

	dir := publishTestStore(t)
	s, err := New(&Config{SyncDir: dir})
	require.NoError(t, err)
	assert.Equal(t, DefaultAddr, s.config.Addr)
}

func TestNewRejectsMissingTLSFiles(t *testing.T) {
	dir := publishTestStore(t)

	_, err := New(&Config{SyncDir: dir, CertFile: filepath.Join(t.TempDir(), "cert.pem")})
	assert.ErrorContains(t, err, "certificate")

	cert := filepath.Join(t.TempDir(), "cert.pem")
	require.NoError(t, os.WriteFile(cert, []byte("not-a-real-cert"), 0o600))
	_, err = New(&Config{SyncDir: dir, CertFile: cert, KeyFile: filepath.Join(t.TempDir(), "key.pem")})
	assert.ErrorContains(t, err, "key")
}
