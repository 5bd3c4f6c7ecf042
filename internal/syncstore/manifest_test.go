package syncstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillbox/quillbox/internal/canonical"
)

func TestManifestContentVersionDetectsTampering(t *testing.T) {
	m := &Manifest{
		Files: map[string]FileEntry{
			"blog.json":    {Hash: "aaa", Size: 1},
			"posts/x.json": {Hash: "bbb", Size: 2},
		},
	}
	m.ContentVersion = m.ComputeContentVersion()

	assert.Equal(t, m.ContentVersion, m.ComputeContentVersion())

	m.Files["posts/x.json"] = FileEntry{Hash: "ccc", Size: 2}
	assert.NotEqual(t, m.ContentVersion, m.ComputeContentVersion())
}

func TestManifestHashTable(t *testing.T) {
	m := &Manifest{
		Files: map[string]FileEntry{
			"blog.json": {Hash: "aaa"},
			"feed.json": {Hash: "bbb"},
		},
	}
	assert.Equal(t, map[string]string{"blog.json": "aaa", "feed.json": "bbb"}, m.HashTable())
}

func TestManifestEncryptionFieldIsOptional(t *testing.T) {
	data, err := canonical.Marshal(&Manifest{Version: ProtocolVersion, Files: map[string]FileEntry{}})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "encryption")

	var legacy Manifest
	require.NoError(t, canonical.Unmarshal([]byte(`{
		"version": "1.2",
		"contentVersion": "x",
		"lastModified": "2024-01-01T00:00:00Z",
		"appSource": "quillbox-mobile",
		"appVersion": "1.0",
		"blogName": "old",
		"fileCount": 0,
		"files": {},
		"encryption": {"hasDrafts": true, "kdf": "pbkdf2-sha256", "salt": "c2FsdA==", "iterations": 100000}
	}`), &legacy))

	require.NotNil(t, legacy.Encryption)
	assert.True(t, legacy.Encryption.HasDrafts)
	assert.Equal(t, 100000, legacy.Encryption.Iterations)
}
