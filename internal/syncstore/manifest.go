package syncstore

import (
	"github.com/quillbox/quillbox/internal/canonical"
)

// ProtocolVersion is the current sync protocol revision. Revision 1.x
// additionally synced an encrypted drafts sub-tree; 2.0 keeps drafts
// local-only.
const ProtocolVersion = "2.0"

// Manifest is the top-level descriptor of a sync store. It is written last
// during generation so it reflects the final hash and size of every other
// file in the store.
type Manifest struct {
	Version        string               `json:"version"`
	ContentVersion string               `json:"contentVersion"`
	LastModified   string               `json:"lastModified"`
	AppSource      string               `json:"appSource"`
	AppVersion     string               `json:"appVersion"`
	BlogName       string               `json:"blogName"`
	FileCount      int                  `json:"fileCount"`
	Files          map[string]FileEntry `json:"files"`

	// Encryption is only present in legacy revision 1.x stores that carry an
	// encrypted drafts sub-tree. Its presence, not the protocol version, is
	// what gates draft decryption.
	Encryption *EncryptionInfo `json:"encryption,omitempty"`
}

// FileEntry describes one file of the store: the digest of its bytes as
// written to disk, its size, and optionally the entity's last-modified
// timestamp.
type FileEntry struct {
	Hash     string  `json:"hash"`
	Size     int64   `json:"size"`
	Modified *string `json:"modified,omitempty"`
}

// IndexEntry is one row of a collection index file. Indexes let a consumer
// decide what to fetch without downloading every entity file.
type IndexEntry struct {
	ID       string  `json:"id"`
	Hash     string  `json:"hash"`
	Modified *string `json:"modified"`
}

// EncryptionInfo describes the legacy encrypted-drafts extension: AES-256-GCM
// with a PBKDF2-SHA256 derived key.
type EncryptionInfo struct {
	HasDrafts  bool   `json:"hasDrafts"`
	KDF        string `json:"kdf"`
	Salt       string `json:"salt"` // base64
	Iterations int    `json:"iterations"`
}

// HashTable flattens the manifest's file table to path -> hash, the shape the
// change detector and the local snapshot work with.
func (m *Manifest) HashTable() map[string]string {
	out := make(map[string]string, len(m.Files))
	for path, entry := range m.Files {
		out[path] = entry.Hash
	}
	return out
}

// ComputeContentVersion recomputes the aggregate digest from the manifest's
// own file table. A mismatch against the recorded ContentVersion means the
// manifest was corrupted or tampered with.
func (m *Manifest) ComputeContentVersion() string {
	return canonical.ContentVersion(m.HashTable())
}
