package canonical

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"
)

// HashBytes returns the hex SHA-256 digest of raw bytes. This is the digest
// used for every file entry in the manifest, computed over the bytes as
// written to disk.
func HashBytes(data []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(data))
}

// HashValue returns the canonical bytes of v together with their digest.
// Callers that also write the bytes to disk should hash what they wrote, but
// since Marshal is deterministic the two are always equal.
func HashValue(v any) ([]byte, string, error) {
	data, err := Marshal(v)
	if err != nil {
		return nil, "", err
	}
	return data, HashBytes(data), nil
}

// ContentVersion computes the aggregate digest of a whole sync store from its
// final path->hash table: sort by path, join as "path:hash" lines, hash the
// concatenation. The result is a pure function of store content, independent
// of generation order or which replica produced it.
func ContentVersion(fileHashes map[string]string) string {
	paths := make([]string, 0, len(fileHashes))
	for p := range fileHashes {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	lines := make([]string, 0, len(paths))
	for _, p := range paths {
		lines = append(lines, p+":"+fileHashes[p])
	}
	return HashBytes([]byte(strings.Join(lines, "\n")))
}
