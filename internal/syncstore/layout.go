// Package syncstore implements the sync store: the directory of
// content-addressed JSON files and binary assets that is the sole interop
// surface between blog replicas. It defines the wire types, the manifest, and
// the generator that produces a store from a local content store.
package syncstore

import "strings"

// Relative paths inside a sync store. The store is served as static files
// under <baseUrl>/sync/.
const (
	ManifestPath = "manifest.json"
	BlogPath     = "blog.json"
	FeedPath     = "feed.json"
	SitemapPath  = "sitemap.xml"

	CategoriesDir  = "categories"
	TagsDir        = "tags"
	PostsDir       = "posts"
	SidebarDir     = "sidebar"
	StaticFilesDir = "static-files"
	EmbedImagesDir = "embed-images"
	ThemesDir      = "themes"

	// DraftsDir is only present in legacy revision 1.x stores, holding
	// AES-GCM encrypted post files. Current stores keep drafts local-only.
	DraftsDir = "drafts"
)

// IndexFileName is the per-collection index inside each collection dir.
const IndexFileName = "index.json"

// IndexPath returns the index file path of a collection directory.
func IndexPath(dir string) string {
	return dir + "/" + IndexFileName
}

// EntityPath returns the path of one serialized entity.
func EntityPath(dir, id string) string {
	return dir + "/" + id + ".json"
}

// AssetPath returns the path of a raw binary asset (static files, embed images).
func AssetPath(dir, filename string) string {
	return dir + "/" + filename
}

// ThemePath returns the path of a serialized theme.
func ThemePath(identifier string) string {
	return ThemesDir + "/" + identifier + ".json"
}

// SplitPath splits a store path into its collection directory and file name.
// Top-level files return an empty dir.
func SplitPath(path string) (dir, name string) {
	i := strings.IndexByte(path, '/')
	if i < 0 {
		return "", path
	}
	return path[:i], path[i+1:]
}

// EntityID extracts the entity id from an entity file name ("<id>.json").
func EntityID(name string) string {
	return strings.TrimSuffix(name, ".json")
}

// IsIndexPath reports whether path is a collection index file.
func IsIndexPath(path string) bool {
	_, name := SplitPath(path)
	return name == IndexFileName
}

// HousekeepingPaths are regenerated on every publish whether or not content
// changed, and are therefore excluded from change detection.
var HousekeepingPaths = map[string]bool{
	FeedPath:    true,
	SitemapPath: true,
}
