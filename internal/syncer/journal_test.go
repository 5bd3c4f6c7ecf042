package syncer

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillbox/quillbox/internal/syncstore"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j := NewJournal(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, j.Open())
	t.Cleanup(func() { j.Close() })
	return j
}

func TestJournalOpenClose(t *testing.T) {
	j := NewJournal(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, j.Open())
	assert.Error(t, j.Open(), "double open must fail")
	require.NoError(t, j.Close())
	assert.Error(t, j.Close(), "double close must fail")
}

func TestJournalReplaceIsWholesale(t *testing.T) {
	j := openTestJournal(t)

	require.NoError(t, j.Replace(map[string]syncstore.FileEntry{
		"blog.json":    {Hash: "h1", Size: 10},
		"posts/a.json": {Hash: "h2", Size: 20},
	}))

	state, err := j.State()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"blog.json": "h1", "posts/a.json": "h2"}, state)

	// a second replace must not leave stale rows behind
	require.NoError(t, j.Replace(map[string]syncstore.FileEntry{
		"blog.json": {Hash: "h1-new", Size: 11},
	}))

	state, err = j.State()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"blog.json": "h1-new"}, state)

	count, err := j.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestJournalMeta(t *testing.T) {
	j := openTestJournal(t)

	val, err := j.Meta(MetaContentVersion)
	require.NoError(t, err)
	assert.Empty(t, val, "unset meta reads as empty")

	require.NoError(t, j.SetMeta(MetaContentVersion, "abc"))
	require.NoError(t, j.SetMeta(MetaContentVersion, "def"))

	val, err = j.Meta(MetaContentVersion)
	require.NoError(t, err)
	assert.Equal(t, "def", val)
}

func TestJournalClear(t *testing.T) {
	j := openTestJournal(t)

	require.NoError(t, j.Replace(map[string]syncstore.FileEntry{"blog.json": {Hash: "h1"}}))
	require.NoError(t, j.SetMeta(MetaRemoteURL, "https://example.com"))

	require.NoError(t, j.Clear())

	state, err := j.State()
	require.NoError(t, err)
	assert.Empty(t, state)

	val, err := j.Meta(MetaRemoteURL)
	require.NoError(t, err)
	assert.Empty(t, val)
}

func TestJournalPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")

	j := NewJournal(path)
	require.NoError(t, j.Open())
	require.NoError(t, j.Replace(map[string]syncstore.FileEntry{"posts/a.json": {Hash: "h2"}}))
	require.NoError(t, j.Close())

	j2 := NewJournal(path)
	require.NoError(t, j2.Open())
	defer j2.Close()

	state, err := j2.State()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"posts/a.json": "h2"}, state)
}
