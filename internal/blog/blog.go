// Package blog defines the content entities that travel through the sync
// protocol: the blog itself, posts, categories, tags, sidebar objects, static
// files, post embeds and themes. Entities reference each other only through
// stable sync ids, never through local store keys.
package blog

import "time"

// Blog holds the top-level settings of one blog. A replica has exactly one
// Blog record per synced blog.
type Blog struct {
	Name        string
	Description string
	Author      string
	ThemeID     string
	UpdatedAt   time.Time
}

// Theme is a serializable site theme. Only non-default themes are included in
// a sync store, identified by their registry identifier.
type Theme struct {
	Identifier string
	Name       string
	Templates  map[string]string
	Styles     string
}
