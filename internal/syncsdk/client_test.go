package syncsdk

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillbox/quillbox/internal/canonical"
	"github.com/quillbox/quillbox/internal/syncstore"
)

func serveFiles(t *testing.T, files map[string][]byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, ok := files[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write(data)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchManifest(t *testing.T) {
	manifest := &syncstore.Manifest{
		Version:        syncstore.ProtocolVersion,
		BlogName:       "wire test",
		ContentVersion: "cv",
		Files:          map[string]syncstore.FileEntry{},
	}
	data, err := canonical.Marshal(manifest)
	require.NoError(t, err)

	srv := serveFiles(t, map[string][]byte{"/sync/manifest.json": data})
	client := New(srv.URL)

	got, err := client.FetchManifest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "wire test", got.BlogName)
	assert.Equal(t, syncstore.ProtocolVersion, got.Version)
}

func TestFetchManifestNotFound(t *testing.T) {
	srv := serveFiles(t, nil)
	client := New(srv.URL)

	_, err := client.FetchManifest(context.Background())
	assert.ErrorIs(t, err, ErrNoSyncStore, "a 404 manifest means the blog has no sync store")
}

func TestFetchManifestDecodeError(t *testing.T) {
	srv := serveFiles(t, map[string][]byte{"/sync/manifest.json": []byte("not json")})
	client := New(srv.URL)

	_, err := client.FetchManifest(context.Background())
	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, syncstore.ManifestPath, decodeErr.Path)
}

func TestFetchFileVerifiesIntegrity(t *testing.T) {
	payload := []byte(`{"name":"ok"}`)
	srv := serveFiles(t, map[string][]byte{"/sync/blog.json": payload})
	client := New(srv.URL)

	data, err := client.FetchFile(context.Background(), "blog.json", canonical.HashBytes(payload))
	require.NoError(t, err)
	assert.Equal(t, payload, data)

	_, err = client.FetchFile(context.Background(), "blog.json", "deadbeef")
	assert.ErrorIs(t, err, ErrIntegrity)

	// empty hash skips verification
	data, err = client.FetchFile(context.Background(), "blog.json", "")
	require.NoError(t, err)
	assert.Equal(t, payload, data)
}

func TestFetchFileNotFoundIsTransportError(t *testing.T) {
	srv := serveFiles(t, nil)
	client := New(srv.URL)

	_, err := client.FetchFile(context.Background(), "posts/missing.json", "")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNoSyncStore), "only the manifest 404 is special")

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, http.StatusNotFound, transportErr.StatusCode)
}

func TestFetchJSON(t *testing.T) {
	payload := []byte(`{"name":"My Blog","description":"","author":"","theme":"default","updated":"2025-01-01T00:00:00Z"}`)
	srv := serveFiles(t, map[string][]byte{"/sync/blog.json": payload})
	client := New(srv.URL)

	var f syncstore.BlogFile
	require.NoError(t, client.FetchJSON(context.Background(), "blog.json", canonical.HashBytes(payload), &f))
	assert.Equal(t, "My Blog", f.Name)

	var g struct{ Name int }
	err := client.FetchJSON(context.Background(), "blog.json", "", &g)
	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
}

func TestTransportErrorOnUnreachableServer(t *testing.T) {
	client := New("http://127.0.0.1:1")

	_, err := client.FetchManifest(context.Background())
	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
}
