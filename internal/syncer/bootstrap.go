package syncer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/quillbox/quillbox/internal/syncstore"
	"github.com/quillbox/quillbox/internal/themes"
)

// Bootstrap performs a full cold-start import: given only the remote base
// url, it materializes the whole blog in the local content store. Collection
// order matters because later steps reference earlier ones by stable id:
// blog settings, categories, tags, embed images, posts, sidebar, static
// files, then the optional custom theme. Any single failure aborts the
// import; the journal snapshot is only recorded after every step succeeded.
// Every entity is upserted by stable id, so re-running a bootstrap, including
// a retry after a mid-import failure, converges instead of duplicating.
func (s *Syncer) Bootstrap(ctx context.Context) error {
	return s.run(func() error { return s.bootstrap(ctx) })
}

func (s *Syncer) bootstrap(ctx context.Context) error {
	manifest, err := s.client.FetchManifest(ctx)
	if err != nil {
		return err
	}

	tracker := &progressTracker{fn: s.progress, total: manifest.FileCount}

	blogFile := &syncstore.BlogFile{}
	entry, err := fileEntry(manifest, syncstore.BlogPath)
	if err != nil {
		return err
	}
	if err := s.client.FetchJSON(ctx, syncstore.BlogPath, entry.Hash, blogFile); err != nil {
		return err
	}
	tracker.step("blog settings")
	b, err := blogFile.Entity()
	if err != nil {
		return err
	}
	if err := s.store.SetBlog(b); err != nil {
		return fmt.Errorf("import blog settings: %w", err)
	}

	if err := s.importCategories(ctx, manifest, tracker); err != nil {
		return err
	}
	if err := s.importTags(ctx, manifest, tracker); err != nil {
		return err
	}
	images, err := s.fetchEmbedImages(ctx, manifest, tracker)
	if err != nil {
		return err
	}
	if err := s.importPosts(ctx, manifest, tracker, images); err != nil {
		return err
	}
	if err := s.importSidebar(ctx, manifest, tracker); err != nil {
		return err
	}
	if err := s.importStaticFiles(ctx, manifest, tracker); err != nil {
		return err
	}
	if err := s.importTheme(ctx, manifest, b.ThemeID, tracker); err != nil {
		return err
	}
	if err := s.importEncryptedDrafts(ctx, manifest, tracker); err != nil {
		return err
	}

	if err := s.recordSnapshot(manifest); err != nil {
		return err
	}
	slog.Info("bootstrap import complete", "blog", manifest.BlogName, "files", manifest.FileCount, "contentVersion", manifest.ContentVersion)
	return nil
}

// fetchIndex downloads and decodes one collection index, verifying it
// against the manifest.
func (s *Syncer) fetchIndex(ctx context.Context, manifest *syncstore.Manifest, dir string) ([]syncstore.IndexEntry, error) {
	path := syncstore.IndexPath(dir)
	entry, err := fileEntry(manifest, path)
	if err != nil {
		return nil, err
	}
	var index []syncstore.IndexEntry
	if err := s.client.FetchJSON(ctx, path, entry.Hash, &index); err != nil {
		return nil, err
	}
	return index, nil
}

func (s *Syncer) importCategories(ctx context.Context, manifest *syncstore.Manifest, tracker *progressTracker) error {
	index, err := s.fetchIndex(ctx, manifest, syncstore.CategoriesDir)
	if err != nil {
		return err
	}
	tracker.step("categories")

	for _, item := range index {
		path := syncstore.EntityPath(syncstore.CategoriesDir, item.ID)
		var f syncstore.CategoryFile
		if err := s.client.FetchJSON(ctx, path, item.Hash, &f); err != nil {
			return err
		}
		// The producer's stable id becomes this replica's own sync id, so a
		// later re-export recognizes the same logical entity.
		if err := s.applyCategory(f.Entity()); err != nil {
			return fmt.Errorf("import category %s: %w", item.ID, err)
		}
		tracker.step("categories")
	}
	return nil
}

func (s *Syncer) importTags(ctx context.Context, manifest *syncstore.Manifest, tracker *progressTracker) error {
	index, err := s.fetchIndex(ctx, manifest, syncstore.TagsDir)
	if err != nil {
		return err
	}
	tracker.step("tags")

	for _, item := range index {
		path := syncstore.EntityPath(syncstore.TagsDir, item.ID)
		var f syncstore.TagFile
		if err := s.client.FetchJSON(ctx, path, item.Hash, &f); err != nil {
			return err
		}
		if err := s.applyTag(f.Entity()); err != nil {
			return fmt.Errorf("import tag %s: %w", item.ID, err)
		}
		tracker.step("tags")
	}
	return nil
}

// fetchEmbedImages downloads every embed image ahead of the posts that
// reference them, keyed by content-addressed filename.
func (s *Syncer) fetchEmbedImages(ctx context.Context, manifest *syncstore.Manifest, tracker *progressTracker) (map[string][]byte, error) {
	index, err := s.fetchIndex(ctx, manifest, syncstore.EmbedImagesDir)
	if err != nil {
		return nil, err
	}
	tracker.step("embed images")

	images := make(map[string][]byte, len(index))
	for _, item := range index {
		path := syncstore.AssetPath(syncstore.EmbedImagesDir, item.ID)
		data, err := s.client.FetchFile(ctx, path, item.Hash)
		if err != nil {
			return nil, err
		}
		images[item.ID] = data
		tracker.step("embed images")
	}
	return images, nil
}

func (s *Syncer) importPosts(ctx context.Context, manifest *syncstore.Manifest, tracker *progressTracker, images map[string][]byte) error {
	index, err := s.fetchIndex(ctx, manifest, syncstore.PostsDir)
	if err != nil {
		return err
	}
	tracker.step("posts")

	for _, item := range index {
		path := syncstore.EntityPath(syncstore.PostsDir, item.ID)
		var f syncstore.PostFile
		if err := s.client.FetchJSON(ctx, path, item.Hash, &f); err != nil {
			return err
		}
		p, err := f.Entity()
		if err != nil {
			return err
		}
		if err := s.applyPost(p, images); err != nil {
			return fmt.Errorf("import post %s: %w", item.ID, err)
		}
		tracker.step("posts")
	}
	return nil
}

func (s *Syncer) importSidebar(ctx context.Context, manifest *syncstore.Manifest, tracker *progressTracker) error {
	index, err := s.fetchIndex(ctx, manifest, syncstore.SidebarDir)
	if err != nil {
		return err
	}
	tracker.step("sidebar")

	for _, item := range index {
		path := syncstore.EntityPath(syncstore.SidebarDir, item.ID)
		var f syncstore.SidebarFile
		if err := s.client.FetchJSON(ctx, path, item.Hash, &f); err != nil {
			return err
		}
		if err := s.applySidebar(f.Entity()); err != nil {
			return fmt.Errorf("import sidebar object %s: %w", item.ID, err)
		}
		tracker.step("sidebar")
	}
	return nil
}

func (s *Syncer) importStaticFiles(ctx context.Context, manifest *syncstore.Manifest, tracker *progressTracker) error {
	index, err := s.fetchIndex(ctx, manifest, syncstore.StaticFilesDir)
	if err != nil {
		return err
	}
	tracker.step("static files")

	for _, item := range index {
		path := syncstore.AssetPath(syncstore.StaticFilesDir, item.ID)
		data, err := s.client.FetchFile(ctx, path, item.Hash)
		if err != nil {
			return err
		}
		if err := s.applyStaticFile(item.ID, data); err != nil {
			return fmt.Errorf("import static file %s: %w", item.ID, err)
		}
		tracker.step("static files")
	}
	return nil
}

func (s *Syncer) importTheme(ctx context.Context, manifest *syncstore.Manifest, themeID string, tracker *progressTracker) error {
	if themeID == "" || themeID == themes.DefaultThemeID {
		return nil
	}
	path := syncstore.ThemePath(themeID)
	entry, err := fileEntry(manifest, path)
	if err != nil {
		return err
	}
	var f syncstore.ThemeFile
	if err := s.client.FetchJSON(ctx, path, entry.Hash, &f); err != nil {
		return err
	}
	s.themes.Add(f.Entity())
	tracker.step("theme")
	return nil
}
