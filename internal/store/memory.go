package store

import (
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/quillbox/quillbox/internal/blog"
)

// MemoryStore is an in-memory ContentStore. It is the reference
// implementation for tests and for ephemeral replicas.
type MemoryStore struct {
	mu          sync.RWMutex
	blog        *blog.Blog
	categories  map[string]*blog.Category
	tags        map[string]*blog.Tag
	posts       map[string]*blog.Post
	sidebar     map[string]*blog.SidebarObject
	staticFiles map[string]*blog.StaticFile
}

var _ ContentStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		categories:  make(map[string]*blog.Category),
		tags:        make(map[string]*blog.Tag),
		posts:       make(map[string]*blog.Post),
		sidebar:     make(map[string]*blog.SidebarObject),
		staticFiles: make(map[string]*blog.StaticFile),
	}
}

func (m *MemoryStore) GetBlog() (*blog.Blog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.blog == nil {
		return nil, ErrNoBlog
	}
	cp := *m.blog
	return &cp, nil
}

func (m *MemoryStore) SetBlog(b *blog.Blog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *b
	m.blog = &cp
	return nil
}

func (m *MemoryStore) ListCategories() ([]*blog.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*blog.Category, 0, len(m.categories))
	for _, c := range m.categories {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Ordering != out[j].Ordering {
			return out[i].Ordering < out[j].Ordering
		}
		return out[i].LocalID < out[j].LocalID
	})
	return out, nil
}

func (m *MemoryStore) GetCategory(localID string) (*blog.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.categories[localID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *MemoryStore) GetCategoryBySyncID(syncID string) (*blog.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.categories {
		if c.SyncID == syncID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) CreateCategory(c *blog.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.LocalID == "" {
		c.LocalID = uuid.NewString()
	}
	cp := *c
	m.categories[c.LocalID] = &cp
	return nil
}

func (m *MemoryStore) UpdateCategory(c *blog.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.categories[c.LocalID]; !ok {
		return ErrNotFound
	}
	cp := *c
	m.categories[c.LocalID] = &cp
	return nil
}

func (m *MemoryStore) DeleteCategory(localID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.categories[localID]; !ok {
		return ErrNotFound
	}
	delete(m.categories, localID)
	return nil
}

func (m *MemoryStore) ListTags() ([]*blog.Tag, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*blog.Tag, 0, len(m.tags))
	for _, t := range m.tags {
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LocalID < out[j].LocalID })
	return out, nil
}

func (m *MemoryStore) GetTag(localID string) (*blog.Tag, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tags[localID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *MemoryStore) GetTagBySyncID(syncID string) (*blog.Tag, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.tags {
		if t.SyncID == syncID {
			cp := *t
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) CreateTag(t *blog.Tag) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.LocalID == "" {
		t.LocalID = uuid.NewString()
	}
	cp := *t
	m.tags[t.LocalID] = &cp
	return nil
}

func (m *MemoryStore) UpdateTag(t *blog.Tag) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tags[t.LocalID]; !ok {
		return ErrNotFound
	}
	cp := *t
	m.tags[t.LocalID] = &cp
	return nil
}

func (m *MemoryStore) DeleteTag(localID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tags[localID]; !ok {
		return ErrNotFound
	}
	delete(m.tags, localID)
	return nil
}

func (m *MemoryStore) ListPosts(includeDrafts bool) ([]*blog.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*blog.Post, 0, len(m.posts))
	for _, p := range m.posts {
		if p.IsDraft && !includeDrafts {
			continue
		}
		cp := clonePost(p)
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].LocalID < out[j].LocalID
	})
	return out, nil
}

func (m *MemoryStore) GetPost(localID string) (*blog.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.posts[localID]
	if !ok {
		return nil, ErrNotFound
	}
	return clonePost(p), nil
}

func (m *MemoryStore) GetPostBySyncID(syncID string) (*blog.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.posts {
		if p.SyncID == syncID {
			return clonePost(p), nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) CreatePost(p *blog.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.LocalID == "" {
		p.LocalID = uuid.NewString()
	}
	m.posts[p.LocalID] = clonePost(p)
	return nil
}

func (m *MemoryStore) UpdatePost(p *blog.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.posts[p.LocalID]; !ok {
		return ErrNotFound
	}
	m.posts[p.LocalID] = clonePost(p)
	return nil
}

func (m *MemoryStore) DeletePost(localID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.posts[localID]; !ok {
		return ErrNotFound
	}
	delete(m.posts, localID)
	return nil
}

func (m *MemoryStore) ListSidebarObjects() ([]*blog.SidebarObject, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*blog.SidebarObject, 0, len(m.sidebar))
	for _, s := range m.sidebar {
		cp := *s
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Ordering != out[j].Ordering {
			return out[i].Ordering < out[j].Ordering
		}
		return out[i].LocalID < out[j].LocalID
	})
	return out, nil
}

func (m *MemoryStore) GetSidebarObjectBySyncID(syncID string) (*blog.SidebarObject, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.sidebar {
		if s.SyncID == syncID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) CreateSidebarObject(s *blog.SidebarObject) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.LocalID == "" {
		s.LocalID = uuid.NewString()
	}
	cp := *s
	m.sidebar[s.LocalID] = &cp
	return nil
}

func (m *MemoryStore) UpdateSidebarObject(s *blog.SidebarObject) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sidebar[s.LocalID]; !ok {
		return ErrNotFound
	}
	cp := *s
	m.sidebar[s.LocalID] = &cp
	return nil
}

func (m *MemoryStore) DeleteSidebarObject(localID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sidebar[localID]; !ok {
		return ErrNotFound
	}
	delete(m.sidebar, localID)
	return nil
}

func (m *MemoryStore) ListStaticFiles() ([]*blog.StaticFile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*blog.StaticFile, 0, len(m.staticFiles))
	for _, f := range m.staticFiles {
		out = append(out, cloneStaticFile(f))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Filename < out[j].Filename })
	return out, nil
}

func (m *MemoryStore) GetStaticFileBySyncID(syncID string) (*blog.StaticFile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, f := range m.staticFiles {
		if f.SyncID == syncID {
			return cloneStaticFile(f), nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) CreateStaticFile(f *blog.StaticFile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if f.LocalID == "" {
		f.LocalID = uuid.NewString()
	}
	m.staticFiles[f.LocalID] = cloneStaticFile(f)
	return nil
}

func (m *MemoryStore) UpdateStaticFile(f *blog.StaticFile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.staticFiles[f.LocalID]; !ok {
		return ErrNotFound
	}
	m.staticFiles[f.LocalID] = cloneStaticFile(f)
	return nil
}

func (m *MemoryStore) DeleteStaticFile(localID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.staticFiles[localID]; !ok {
		return ErrNotFound
	}
	delete(m.staticFiles, localID)
	return nil
}

func clonePost(p *blog.Post) *blog.Post {
	cp := *p
	cp.CategoryIDs = append([]string(nil), p.CategoryIDs...)
	cp.TagIDs = append([]string(nil), p.TagIDs...)
	if p.PublishedAt != nil {
		t := *p.PublishedAt
		cp.PublishedAt = &t
	}
	if p.Embed != nil {
		e := *p.Embed
		e.Images = make([]blog.EmbedImage, len(p.Embed.Images))
		for i, img := range p.Embed.Images {
			e.Images[i] = blog.EmbedImage{
				SourceURL: img.SourceURL,
				Data:      append([]byte(nil), img.Data...),
			}
		}
		cp.Embed = &e
	}
	return &cp
}

func cloneStaticFile(f *blog.StaticFile) *blog.StaticFile {
	cp := *f
	cp.Data = append([]byte(nil), f.Data...)
	return &cp
}
