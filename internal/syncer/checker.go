package syncer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/quillbox/quillbox/internal/syncstore"
)

// ChangeSet is the result of diffing a remote manifest against the locally
// recorded snapshot of the same remote. It is a pure hash-table diff; no file
// content is ever touched to compute it.
type ChangeSet struct {
	Added    []string
	Modified []string
	Deleted  []string
}

// CheckForChanges compares the local snapshot (path -> hash) with the remote
// manifest. A path only present remotely is added; present in both with a
// different hash is modified; only present locally is deleted. Housekeeping
// outputs are regenerated on every publish and are excluded from the
// modified set, so cosmetic regeneration never signals a change.
func CheckForChanges(local map[string]string, remote *syncstore.Manifest) *ChangeSet {
	cs := &ChangeSet{}

	for path, entry := range remote.Files {
		localHash, ok := local[path]
		switch {
		case !ok:
			cs.Added = append(cs.Added, path)
		case localHash != entry.Hash:
			if syncstore.HousekeepingPaths[path] {
				continue
			}
			cs.Modified = append(cs.Modified, path)
		}
	}
	for path := range local {
		if _, ok := remote.Files[path]; !ok {
			cs.Deleted = append(cs.Deleted, path)
		}
	}

	sort.Strings(cs.Added)
	sort.Strings(cs.Modified)
	sort.Strings(cs.Deleted)
	return cs
}

// HasChanges reports whether anything differs.
func (c *ChangeSet) HasChanges() bool {
	return len(c.Added)+len(c.Modified)+len(c.Deleted) > 0
}

// Summary renders a human-readable one-line description of the change set.
func (c *ChangeSet) Summary() string {
	if !c.HasChanges() {
		return "up to date"
	}

	counts := make(map[string]int)
	for _, path := range append(append(append([]string{}, c.Added...), c.Modified...), c.Deleted...) {
		dir, _ := syncstore.SplitPath(path)
		switch dir {
		case syncstore.PostsDir:
			counts["posts"]++
		case syncstore.CategoriesDir:
			counts["categories"]++
		case syncstore.TagsDir:
			counts["tags"]++
		case syncstore.SidebarDir:
			counts["sidebar"]++
		case syncstore.StaticFilesDir:
			counts["static files"]++
		case syncstore.EmbedImagesDir:
			counts["images"]++
		case syncstore.ThemesDir:
			counts["theme"]++
		default:
			counts["settings"]++
		}
	}

	kinds := make([]string, 0, len(counts))
	for kind := range counts {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)

	parts := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		parts = append(parts, fmt.Sprintf("%s: %d", kind, counts[kind]))
	}

	return fmt.Sprintf("%d added, %d modified, %d deleted (%s)",
		len(c.Added), len(c.Modified), len(c.Deleted), strings.Join(parts, ", "))
}
