package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/quillbox/quillbox/internal/blog"
	"github.com/quillbox/quillbox/internal/store"
	"github.com/quillbox/quillbox/internal/syncstore"
)

// Pull applies the delta between the recorded snapshot and the current remote
// state: it fetches only added and modified files, upserts entities by stable
// id, deletes entities whose backing file disappeared, and finally replaces
// the snapshot wholesale with the new manifest's file table. With no remote
// change it performs zero writes.
func (s *Syncer) Pull(ctx context.Context) (*ChangeSet, error) {
	var changes *ChangeSet
	err := s.run(func() error {
		manifest, err := s.client.FetchManifest(ctx)
		if err != nil {
			return err
		}
		local, err := s.journal.State()
		if err != nil {
			return err
		}
		changes = CheckForChanges(local, manifest)
		if !changes.HasChanges() {
			slog.Debug("pull: no remote changes")
			return nil
		}
		if err := s.applyChanges(ctx, manifest, changes); err != nil {
			return err
		}
		return s.recordSnapshot(manifest)
	})
	return changes, err
}

// incoming buckets the added and modified paths of a change set by the
// collection phase that has to process them.
type incoming struct {
	categories  []string // entity file names
	tags        []string
	posts       []string
	sidebar     []string
	staticFiles []string
	images      []string
	drafts      []string
	blogChanged bool
	themePath   string
	indexes     []string
}

func bucketChanges(changes *ChangeSet) *incoming {
	in := &incoming{}
	for _, path := range append(append([]string{}, changes.Added...), changes.Modified...) {
		if syncstore.HousekeepingPaths[path] {
			continue
		}
		if syncstore.IsIndexPath(path) {
			in.indexes = append(in.indexes, path)
			continue
		}
		dir, name := syncstore.SplitPath(path)
		switch dir {
		case syncstore.CategoriesDir:
			in.categories = append(in.categories, name)
		case syncstore.TagsDir:
			in.tags = append(in.tags, name)
		case syncstore.PostsDir:
			in.posts = append(in.posts, name)
		case syncstore.SidebarDir:
			in.sidebar = append(in.sidebar, name)
		case syncstore.StaticFilesDir:
			in.staticFiles = append(in.staticFiles, name)
		case syncstore.EmbedImagesDir:
			in.images = append(in.images, name)
		case syncstore.DraftsDir:
			in.drafts = append(in.drafts, name)
		case syncstore.ThemesDir:
			in.themePath = path
		case "":
			if name == syncstore.BlogPath {
				in.blogChanged = true
			}
		}
	}
	return in
}

func (s *Syncer) applyChanges(ctx context.Context, manifest *syncstore.Manifest, changes *ChangeSet) error {
	in := bucketChanges(changes)
	tracker := &progressTracker{fn: s.progress, total: len(changes.Added) + len(changes.Modified)}

	// Changed indexes are re-fetched and verified; the manifest's file table
	// already tells us which entity files to fetch, so the decoded indexes
	// only serve as an integrity cross-check.
	for _, path := range in.indexes {
		if err := ctx.Err(); err != nil {
			return err
		}
		entry, err := fileEntry(manifest, path)
		if err != nil {
			return err
		}
		var index []syncstore.IndexEntry
		if err := s.client.FetchJSON(ctx, path, entry.Hash, &index); err != nil {
			return err
		}
		tracker.step("indexes")
	}

	if in.blogChanged {
		entry, err := fileEntry(manifest, syncstore.BlogPath)
		if err != nil {
			return err
		}
		var f syncstore.BlogFile
		if err := s.client.FetchJSON(ctx, syncstore.BlogPath, entry.Hash, &f); err != nil {
			return err
		}
		b, err := f.Entity()
		if err != nil {
			return err
		}
		if err := s.store.SetBlog(b); err != nil {
			return fmt.Errorf("apply blog settings: %w", err)
		}
		tracker.step("blog settings")
	}

	for _, name := range in.categories {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.pullCategory(ctx, manifest, syncstore.EntityID(name)); err != nil {
			return err
		}
		tracker.step("categories")
	}
	for _, name := range in.tags {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.pullTag(ctx, manifest, syncstore.EntityID(name)); err != nil {
			return err
		}
		tracker.step("tags")
	}

	// Embed images before the posts that reference them, same phase order as
	// bootstrap.
	images := make(map[string][]byte, len(in.images))
	for _, name := range in.images {
		if err := ctx.Err(); err != nil {
			return err
		}
		path := syncstore.AssetPath(syncstore.EmbedImagesDir, name)
		entry, err := fileEntry(manifest, path)
		if err != nil {
			return err
		}
		data, err := s.client.FetchFile(ctx, path, entry.Hash)
		if err != nil {
			return err
		}
		images[name] = data
		tracker.step("embed images")
	}

	for _, name := range in.posts {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.pullPost(ctx, manifest, syncstore.EntityID(name), images); err != nil {
			return err
		}
		tracker.step("posts")
	}

	if err := s.pullEncryptedDrafts(ctx, manifest, in.drafts, tracker); err != nil {
		return err
	}

	for _, name := range in.sidebar {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.pullSidebar(ctx, manifest, syncstore.EntityID(name)); err != nil {
			return err
		}
		tracker.step("sidebar")
	}

	for _, name := range in.staticFiles {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.pullStaticFile(ctx, manifest, name); err != nil {
			return err
		}
		tracker.step("static files")
	}

	if in.themePath != "" {
		entry, err := fileEntry(manifest, in.themePath)
		if err != nil {
			return err
		}
		var f syncstore.ThemeFile
		if err := s.client.FetchJSON(ctx, in.themePath, entry.Hash, &f); err != nil {
			return err
		}
		s.themes.Add(f.Entity())
		tracker.step("theme")
	}

	return s.applyDeletes(changes.Deleted)
}

func (s *Syncer) pullCategory(ctx context.Context, manifest *syncstore.Manifest, syncID string) error {
	path := syncstore.EntityPath(syncstore.CategoriesDir, syncID)
	entry, err := fileEntry(manifest, path)
	if err != nil {
		return err
	}
	var f syncstore.CategoryFile
	if err := s.client.FetchJSON(ctx, path, entry.Hash, &f); err != nil {
		return err
	}
	return s.applyCategory(f.Entity())
}

func (s *Syncer) pullTag(ctx context.Context, manifest *syncstore.Manifest, syncID string) error {
	path := syncstore.EntityPath(syncstore.TagsDir, syncID)
	entry, err := fileEntry(manifest, path)
	if err != nil {
		return err
	}
	var f syncstore.TagFile
	if err := s.client.FetchJSON(ctx, path, entry.Hash, &f); err != nil {
		return err
	}
	return s.applyTag(f.Entity())
}

func (s *Syncer) pullPost(ctx context.Context, manifest *syncstore.Manifest, syncID string, images map[string][]byte) error {
	path := syncstore.EntityPath(syncstore.PostsDir, syncID)
	entry, err := fileEntry(manifest, path)
	if err != nil {
		return err
	}
	var f syncstore.PostFile
	if err := s.client.FetchJSON(ctx, path, entry.Hash, &f); err != nil {
		return err
	}
	p, err := f.Entity()
	if err != nil {
		return err
	}

	// A post can reference categories, tags or images whose own files did not
	// change in this delta but are still missing locally (e.g. after a
	// partial local wipe). Resolve them before the post is upserted.
	for _, catID := range p.CategoryIDs {
		if _, err := s.store.GetCategoryBySyncID(catID); errors.Is(err, store.ErrNotFound) {
			if err := s.pullCategory(ctx, manifest, catID); err != nil {
				return fmt.Errorf("resolve category %s for post %s: %w", catID, syncID, err)
			}
		} else if err != nil {
			return err
		}
	}
	for _, tagID := range p.TagIDs {
		if _, err := s.store.GetTagBySyncID(tagID); errors.Is(err, store.ErrNotFound) {
			if err := s.pullTag(ctx, manifest, tagID); err != nil {
				return fmt.Errorf("resolve tag %s for post %s: %w", tagID, syncID, err)
			}
		} else if err != nil {
			return err
		}
	}
	if p.Embed != nil {
		for _, img := range p.Embed.Images {
			name := syncstore.EmbedImageFilename(img.SourceURL)
			if _, ok := images[name]; ok {
				continue
			}
			imgPath := syncstore.AssetPath(syncstore.EmbedImagesDir, name)
			imgEntry, err := fileEntry(manifest, imgPath)
			if err != nil {
				return err
			}
			data, err := s.client.FetchFile(ctx, imgPath, imgEntry.Hash)
			if err != nil {
				return fmt.Errorf("resolve image %s for post %s: %w", name, syncID, err)
			}
			images[name] = data
		}
	}

	return s.applyPost(p, images)
}

func (s *Syncer) pullSidebar(ctx context.Context, manifest *syncstore.Manifest, syncID string) error {
	path := syncstore.EntityPath(syncstore.SidebarDir, syncID)
	entry, err := fileEntry(manifest, path)
	if err != nil {
		return err
	}
	var f syncstore.SidebarFile
	if err := s.client.FetchJSON(ctx, path, entry.Hash, &f); err != nil {
		return err
	}
	return s.applySidebar(f.Entity())
}

func (s *Syncer) pullStaticFile(ctx context.Context, manifest *syncstore.Manifest, filename string) error {
	path := syncstore.AssetPath(syncstore.StaticFilesDir, filename)
	entry, err := fileEntry(manifest, path)
	if err != nil {
		return err
	}
	data, err := s.client.FetchFile(ctx, path, entry.Hash)
	if err != nil {
		return err
	}
	return s.applyStaticFile(filename, data)
}

// applyDeletes removes local entities whose backing file disappeared from the
// remote store. Index, image and housekeeping paths carry no local entity of
// their own.
func (s *Syncer) applyDeletes(deleted []string) error {
	for _, path := range deleted {
		if syncstore.IsIndexPath(path) || syncstore.HousekeepingPaths[path] {
			continue
		}
		dir, name := syncstore.SplitPath(path)
		switch dir {
		case syncstore.CategoriesDir:
			if err := deleteBySyncID(syncstore.EntityID(name), s.store.GetCategoryBySyncID, s.store.DeleteCategory); err != nil {
				return err
			}
		case syncstore.TagsDir:
			if err := deleteBySyncID(syncstore.EntityID(name), s.store.GetTagBySyncID, s.store.DeleteTag); err != nil {
				return err
			}
		case syncstore.PostsDir, syncstore.DraftsDir:
			if err := deleteBySyncID(syncstore.EntityID(name), s.store.GetPostBySyncID, s.store.DeletePost); err != nil {
				return err
			}
		case syncstore.SidebarDir:
			if err := deleteBySyncID(syncstore.EntityID(name), s.store.GetSidebarObjectBySyncID, s.store.DeleteSidebarObject); err != nil {
				return err
			}
		case syncstore.StaticFilesDir:
			if err := deleteBySyncID(name, s.store.GetStaticFileBySyncID, s.store.DeleteStaticFile); err != nil {
				return err
			}
		}
	}
	return nil
}

func deleteBySyncID[E blog.SyncEntity](syncID string, get func(string) (E, error), del func(string) error) error {
	entity, err := get(syncID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}
	if err := del(entity.LocalKey()); err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	return nil
}

// ForceResync is the blunt recovery path for a corrupted or diverged local
// snapshot: wipe every synced entity and the snapshot, then bootstrap again
// from the same remote. Non-sync configuration is untouched.
func (s *Syncer) ForceResync(ctx context.Context) error {
	return s.run(func() error {
		if err := s.purgeSyncedEntities(); err != nil {
			return err
		}
		if err := s.journal.Clear(); err != nil {
			return err
		}
		slog.Info("force resync: local synced state cleared")
		return s.bootstrap(ctx)
	})
}

// purgeSyncedEntities deletes every entity carrying a stable sync id. Local
// drafts and never-synced entities have no sync id and are kept.
func (s *Syncer) purgeSyncedEntities() error {
	posts, err := s.store.ListPosts(false)
	if err != nil {
		return err
	}
	for _, p := range posts {
		if p.SyncID == "" {
			continue
		}
		if err := s.store.DeletePost(p.LocalID); err != nil {
			return err
		}
	}
	categories, err := s.store.ListCategories()
	if err != nil {
		return err
	}
	for _, c := range categories {
		if c.SyncID == "" {
			continue
		}
		if err := s.store.DeleteCategory(c.LocalID); err != nil {
			return err
		}
	}
	tags, err := s.store.ListTags()
	if err != nil {
		return err
	}
	for _, t := range tags {
		if t.SyncID == "" {
			continue
		}
		if err := s.store.DeleteTag(t.LocalID); err != nil {
			return err
		}
	}
	sidebar, err := s.store.ListSidebarObjects()
	if err != nil {
		return err
	}
	for _, o := range sidebar {
		if o.SyncID == "" {
			continue
		}
		if err := s.store.DeleteSidebarObject(o.LocalID); err != nil {
			return err
		}
	}
	files, err := s.store.ListStaticFiles()
	if err != nil {
		return err
	}
	for _, f := range files {
		if f.SyncID == "" {
			continue
		}
		if err := s.store.DeleteStaticFile(f.LocalID); err != nil {
			return err
		}
	}
	return nil
}
