package syncstore

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/quillbox/quillbox/internal/blog"
	"github.com/quillbox/quillbox/internal/canonical"
	"github.com/quillbox/quillbox/internal/store"
	"github.com/quillbox/quillbox/internal/themes"
	"github.com/quillbox/quillbox/internal/utils"
	"github.com/quillbox/quillbox/internal/version"
)

// ProgressFunc reports a step description and a done/total counter for one
// long-running sync operation. The done count is monotonically non-decreasing
// within one operation; no other ordering is guaranteed.
type ProgressFunc func(step string, done, total int)

// Generator walks a local content store and emits a complete sync store
// directory. Generation is all-or-nothing: it writes into a temporary
// directory and renames it over the target only after every file, index and
// the manifest were written successfully.
type Generator struct {
	store    store.ContentStore
	themes   themes.Registry
	progress ProgressFunc
}

type GeneratorOption func(*Generator)

// WithProgress installs a progress callback on the generator.
func WithProgress(fn ProgressFunc) GeneratorOption {
	return func(g *Generator) { g.progress = fn }
}

func NewGenerator(cs store.ContentStore, reg themes.Registry, opts ...GeneratorOption) *Generator {
	g := &Generator{store: cs, themes: reg}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Result is the outcome of one generation: the manifest as written, the flat
// path->hash table, and the directory the store was published to.
type Result struct {
	Manifest   *Manifest
	FileHashes map[string]string
	Dir        string
}

// Generate produces the sync store for the content store's blog at outDir.
// Any single failure aborts the whole generation and leaves a previously
// published store at outDir untouched.
func (g *Generator) Generate(ctx context.Context, outDir string) (*Result, error) {
	b, err := g.store.GetBlog()
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}

	content, err := g.collect(b)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}

	if err := utils.EnsureParent(outDir); err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}
	tmpDir, err := os.MkdirTemp(filepath.Dir(outDir), ".quillbox-gen-*")
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	w := newStoreWriter(tmpDir)
	if err := g.writeAll(ctx, w, b, content); err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}

	manifest := &Manifest{
		Version:        ProtocolVersion,
		ContentVersion: canonical.ContentVersion(w.hashes),
		LastModified:   canonical.FormatTime(time.Now()),
		AppSource:      AppSource,
		AppVersion:     version.Version,
		BlogName:       b.Name,
		FileCount:      len(w.entries),
		Files:          w.entries,
	}
	manifestBytes, err := canonical.Marshal(manifest)
	if err != nil {
		return nil, fmt.Errorf("generate: manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(tmpDir, ManifestPath), manifestBytes, 0o644); err != nil {
		return nil, fmt.Errorf("generate: manifest: %w", err)
	}

	// Publish atomically: the previous store disappears only once the new one
	// is complete on disk.
	if err := os.RemoveAll(outDir); err != nil {
		return nil, fmt.Errorf("generate: publish: %w", err)
	}
	if err := os.Rename(tmpDir, outDir); err != nil {
		return nil, fmt.Errorf("generate: publish: %w", err)
	}

	slog.Info("sync store generated", "dir", outDir, "files", manifest.FileCount, "contentVersion", manifest.ContentVersion)
	return &Result{Manifest: manifest, FileHashes: w.hashes, Dir: outDir}, nil
}

// blogContent is everything read from the content store up front, so the
// write phase has a known file total for progress reporting.
type blogContent struct {
	categories  []*blog.Category
	tags        []*blog.Tag
	posts       []*blog.Post
	sidebar     []*blog.SidebarObject
	staticFiles []*blog.StaticFile
	theme       *blog.Theme
	images      map[string][]byte // asset filename -> bytes
}

func (c *blogContent) fileTotal() int {
	// entities + their images + six indexes + blog.json + feed + sitemap
	n := len(c.categories) + len(c.tags) + len(c.posts) + len(c.sidebar) + len(c.staticFiles) + len(c.images)
	n += 6 + 3
	if c.theme != nil {
		n++
	}
	return n
}

func (g *Generator) collect(b *blog.Blog) (*blogContent, error) {
	c := &blogContent{images: make(map[string][]byte)}
	var err error

	if c.categories, err = g.store.ListCategories(); err != nil {
		return nil, err
	}
	if c.tags, err = g.store.ListTags(); err != nil {
		return nil, err
	}
	// Drafts are local-only in the current protocol revision.
	if c.posts, err = g.store.ListPosts(false); err != nil {
		return nil, err
	}
	if c.sidebar, err = g.store.ListSidebarObjects(); err != nil {
		return nil, err
	}
	if c.staticFiles, err = g.store.ListStaticFiles(); err != nil {
		return nil, err
	}

	// Assign stable ids before serializing anything: posts and sidebar
	// objects reference categories and tags by those ids.
	for _, cat := range c.categories {
		if err := resolveAndPersist(cat, g.store.UpdateCategory); err != nil {
			return nil, err
		}
	}
	for _, tag := range c.tags {
		if err := resolveAndPersist(tag, g.store.UpdateTag); err != nil {
			return nil, err
		}
	}
	for _, p := range c.posts {
		if err := resolveAndPersist(p, g.store.UpdatePost); err != nil {
			return nil, err
		}
	}
	for _, s := range c.sidebar {
		if err := resolveAndPersist(s, g.store.UpdateSidebarObject); err != nil {
			return nil, err
		}
	}
	for _, f := range c.staticFiles {
		// Static files are addressed by filename in the store layout.
		if f.SyncID == "" {
			f.SyncID = f.Filename
			if err := g.store.UpdateStaticFile(f); err != nil {
				return nil, err
			}
		}
	}

	for _, p := range c.posts {
		if p.Embed == nil || p.Embed.Kind != blog.EmbedImages {
			continue
		}
		for _, img := range p.Embed.Images {
			name := EmbedImageFilename(img.SourceURL)
			if _, ok := c.images[name]; ok {
				continue
			}
			if len(img.Data) == 0 {
				return nil, fmt.Errorf("post %s: embed image %q has no local data", p.SyncID, img.SourceURL)
			}
			c.images[name] = img.Data
		}
	}

	if b.ThemeID != "" && b.ThemeID != themes.DefaultThemeID {
		c.theme = g.themes.Get(b.ThemeID)
		if c.theme == nil {
			return nil, fmt.Errorf("active theme %q not found in registry", b.ThemeID)
		}
	}

	return c, nil
}

func resolveAndPersist[E blog.SyncEntity](e E, update func(E) error) error {
	before := e.StableID()
	blog.ResolveStableID(e)
	if e.StableID() != before {
		// Newly derived ids are persisted back so every later export reuses
		// them verbatim.
		if err := update(e); err != nil {
			return fmt.Errorf("persist sync id for %s: %w", e.LocalKey(), err)
		}
	}
	return nil
}

func (g *Generator) writeAll(ctx context.Context, w *storeWriter, b *blog.Blog, c *blogContent) error {
	total := c.fileTotal()
	done := 0
	step := func(name string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		done++
		if g.progress != nil {
			g.progress(name, done, total)
		}
		return nil
	}

	catIndex := make([]IndexEntry, 0, len(c.categories))
	for _, cat := range c.categories {
		f := NewCategoryFile(cat)
		hash, err := w.writeJSON(EntityPath(CategoriesDir, cat.SyncID), f, nil)
		if err != nil {
			return err
		}
		catIndex = append(catIndex, IndexEntry{ID: cat.SyncID, Hash: hash})
		if err := step("categories"); err != nil {
			return err
		}
	}
	if err := w.writeIndex(CategoriesDir, catIndex); err != nil {
		return err
	}
	if err := step("categories"); err != nil {
		return err
	}

	tagIndex := make([]IndexEntry, 0, len(c.tags))
	for _, tag := range c.tags {
		f := NewTagFile(tag)
		hash, err := w.writeJSON(EntityPath(TagsDir, tag.SyncID), f, nil)
		if err != nil {
			return err
		}
		tagIndex = append(tagIndex, IndexEntry{ID: tag.SyncID, Hash: hash})
		if err := step("tags"); err != nil {
			return err
		}
	}
	if err := w.writeIndex(TagsDir, tagIndex); err != nil {
		return err
	}
	if err := step("tags"); err != nil {
		return err
	}

	imageIndex := make([]IndexEntry, 0, len(c.images))
	for name, data := range c.images {
		hash, err := w.writeRaw(AssetPath(EmbedImagesDir, name), data, nil)
		if err != nil {
			return err
		}
		imageIndex = append(imageIndex, IndexEntry{ID: name, Hash: hash})
		if err := step("embed images"); err != nil {
			return err
		}
	}
	if err := w.writeIndex(EmbedImagesDir, imageIndex); err != nil {
		return err
	}
	if err := step("embed images"); err != nil {
		return err
	}

	postIndex := make([]IndexEntry, 0, len(c.posts))
	for _, p := range c.posts {
		f := NewPostFile(p)
		modified := canonical.FormatTime(p.UpdatedAt)
		hash, err := w.writeJSON(EntityPath(PostsDir, p.SyncID), f, &modified)
		if err != nil {
			return err
		}
		postIndex = append(postIndex, IndexEntry{ID: p.SyncID, Hash: hash, Modified: &modified})
		if err := step("posts"); err != nil {
			return err
		}
	}
	if err := w.writeIndex(PostsDir, postIndex); err != nil {
		return err
	}
	if err := step("posts"); err != nil {
		return err
	}

	sidebarIndex := make([]IndexEntry, 0, len(c.sidebar))
	for _, s := range c.sidebar {
		f := NewSidebarFile(s)
		hash, err := w.writeJSON(EntityPath(SidebarDir, s.SyncID), f, nil)
		if err != nil {
			return err
		}
		sidebarIndex = append(sidebarIndex, IndexEntry{ID: s.SyncID, Hash: hash})
		if err := step("sidebar"); err != nil {
			return err
		}
	}
	if err := w.writeIndex(SidebarDir, sidebarIndex); err != nil {
		return err
	}
	if err := step("sidebar"); err != nil {
		return err
	}

	staticIndex := make([]IndexEntry, 0, len(c.staticFiles))
	for _, f := range c.staticFiles {
		hash, err := w.writeRaw(AssetPath(StaticFilesDir, f.Filename), f.Data, nil)
		if err != nil {
			return err
		}
		staticIndex = append(staticIndex, IndexEntry{ID: f.Filename, Hash: hash})
		if err := step("static files"); err != nil {
			return err
		}
	}
	if err := w.writeIndex(StaticFilesDir, staticIndex); err != nil {
		return err
	}
	if err := step("static files"); err != nil {
		return err
	}

	if c.theme != nil {
		if _, err := w.writeJSON(ThemePath(c.theme.Identifier), NewThemeFile(c.theme), nil); err != nil {
			return err
		}
		if err := step("theme"); err != nil {
			return err
		}
	}

	if _, err := w.writeJSON(BlogPath, NewBlogFile(b), nil); err != nil {
		return err
	}
	if err := step("blog settings"); err != nil {
		return err
	}

	// Housekeeping outputs, regenerated on every publish.
	if _, err := w.writeJSON(FeedPath, NewFeed(b, c.posts), nil); err != nil {
		return err
	}
	if err := step("feed"); err != nil {
		return err
	}
	if _, err := w.writeRaw(SitemapPath, Sitemap(c.posts), nil); err != nil {
		return err
	}
	return step("sitemap")
}

// storeWriter writes files under a root directory and records the hash and
// size of everything written, building the manifest's file table.
type storeWriter struct {
	dir     string
	hashes  map[string]string
	entries map[string]FileEntry
}

func newStoreWriter(dir string) *storeWriter {
	return &storeWriter{
		dir:     dir,
		hashes:  make(map[string]string),
		entries: make(map[string]FileEntry),
	}
}

func (w *storeWriter) writeJSON(path string, v any, modified *string) (string, error) {
	data, err := canonical.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return w.writeRaw(path, data, modified)
}

func (w *storeWriter) writeRaw(path string, data []byte, modified *string) (string, error) {
	full := filepath.Join(w.dir, filepath.FromSlash(path))
	if err := utils.EnsureParent(full); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	hash := canonical.HashBytes(data)
	w.hashes[path] = hash
	w.entries[path] = FileEntry{Hash: hash, Size: int64(len(data)), Modified: modified}
	return hash, nil
}

// writeIndex sorts entries by id before serializing, so index bytes never
// depend on store iteration order.
func (w *storeWriter) writeIndex(dir string, entries []IndexEntry) error {
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	_, err := w.writeJSON(IndexPath(dir), entries, nil)
	return err
}

// AppSource identifies this implementation in manifests it produces.
const AppSource = "quillbox-go"
