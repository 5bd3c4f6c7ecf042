// Package themes provides the read-only theme lookup used by the sync
// generator and importers. The registry is injected rather than global, so
// multiple blogs and tests can run against independent registries.
package themes

import "github.com/quillbox/quillbox/internal/blog"

// DefaultThemeID identifies the built-in theme. The default theme ships with
// every client, so it is never serialized into a sync store.
const DefaultThemeID = "default"

// Registry resolves theme identifiers to theme definitions.
type Registry interface {
	// Get returns the theme for the identifier, or nil if unknown.
	Get(identifier string) *blog.Theme
}

// WritableRegistry is a Registry that can also learn new themes, which
// importers need when a sync store carries a custom theme.
type WritableRegistry interface {
	Registry
	Add(t *blog.Theme)
}

// MapRegistry is a Registry backed by an in-memory map.
type MapRegistry struct {
	themes map[string]*blog.Theme
}

func NewMapRegistry(themes ...*blog.Theme) *MapRegistry {
	m := make(map[string]*blog.Theme, len(themes))
	for _, t := range themes {
		m[t.Identifier] = t
	}
	return &MapRegistry{themes: m}
}

func (r *MapRegistry) Get(identifier string) *blog.Theme {
	return r.themes[identifier]
}

// Add registers a theme, replacing any previous definition with the same
// identifier. Importers use this to restore a custom theme from a sync store.
func (r *MapRegistry) Add(t *blog.Theme) {
	r.themes[t.Identifier] = t
}
