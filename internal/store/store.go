// Package store defines the local content store contract the sync core runs
// against, plus two implementations: an in-memory store used by tests and a
// SQLite store matching what the real clients keep on disk. The sync core
// never depends on a particular storage engine, only on this interface.
package store

import (
	"errors"

	"github.com/quillbox/quillbox/internal/blog"
)

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("store: entity not found")

	// ErrNoBlog is returned when no blog record has been created yet.
	ErrNoBlog = errors.New("store: no blog configured")
)

// ContentStore is the CRUD capability set the sync core requires from the
// local content layer. Create calls assign a local id when the entity carries
// none; Update persists every mutable field including the stable sync id.
type ContentStore interface {
	GetBlog() (*blog.Blog, error)
	SetBlog(b *blog.Blog) error

	ListCategories() ([]*blog.Category, error)
	GetCategory(localID string) (*blog.Category, error)
	GetCategoryBySyncID(syncID string) (*blog.Category, error)
	CreateCategory(c *blog.Category) error
	UpdateCategory(c *blog.Category) error
	DeleteCategory(localID string) error

	ListTags() ([]*blog.Tag, error)
	GetTag(localID string) (*blog.Tag, error)
	GetTagBySyncID(syncID string) (*blog.Tag, error)
	CreateTag(t *blog.Tag) error
	UpdateTag(t *blog.Tag) error
	DeleteTag(localID string) error

	// ListPosts returns published posts, and drafts too when includeDrafts
	// is set. Drafts never leave the local store through sync.
	ListPosts(includeDrafts bool) ([]*blog.Post, error)
	GetPost(localID string) (*blog.Post, error)
	GetPostBySyncID(syncID string) (*blog.Post, error)
	CreatePost(p *blog.Post) error
	UpdatePost(p *blog.Post) error
	DeletePost(localID string) error

	ListSidebarObjects() ([]*blog.SidebarObject, error)
	GetSidebarObjectBySyncID(syncID string) (*blog.SidebarObject, error)
	CreateSidebarObject(s *blog.SidebarObject) error
	UpdateSidebarObject(s *blog.SidebarObject) error
	DeleteSidebarObject(localID string) error

	ListStaticFiles() ([]*blog.StaticFile, error)
	GetStaticFileBySyncID(syncID string) (*blog.StaticFile, error)
	CreateStaticFile(f *blog.StaticFile) error
	UpdateStaticFile(f *blog.StaticFile) error
	DeleteStaticFile(localID string) error
}
