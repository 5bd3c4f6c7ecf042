package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/quillbox/quillbox/internal/blog"
	"github.com/quillbox/quillbox/internal/store"
	"github.com/quillbox/quillbox/internal/syncsdk"
	"github.com/quillbox/quillbox/internal/syncstore"
	"github.com/quillbox/quillbox/internal/themes"
)

// ErrBusy is returned when a sync operation is started while another one is
// already running for the same blog. Operations within one blog are strictly
// single-flight; different blogs can sync in parallel.
var ErrBusy = errors.New("syncer: another sync operation is in flight")

// Syncer drives all consuming-side operations for one blog: check, bootstrap
// import, incremental pull, and force re-sync.
type Syncer struct {
	mu            sync.Mutex
	store         store.ContentStore
	themes        themes.WritableRegistry
	client        *syncsdk.Client
	journal       *Journal
	progress      syncstore.ProgressFunc
	draftPassword string
}

type Option func(*Syncer)

// WithProgress installs a progress callback invoked synchronously during
// long-running operations.
func WithProgress(fn syncstore.ProgressFunc) Option {
	return func(s *Syncer) { s.progress = fn }
}

// WithDraftPassword supplies the password for the encrypted drafts sub-tree of
// a legacy revision 1.x store. Without one, encrypted drafts are skipped.
func WithDraftPassword(password string) Option {
	return func(s *Syncer) { s.draftPassword = password }
}

func New(cs store.ContentStore, reg themes.WritableRegistry, client *syncsdk.Client, journal *Journal, opts ...Option) *Syncer {
	s := &Syncer{store: cs, themes: reg, client: client, journal: journal}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Check fetches the remote manifest and diffs it against the recorded local
// snapshot. It downloads nothing but the manifest, so it is cheap enough to
// run opportunistically.
func (s *Syncer) Check(ctx context.Context) (*ChangeSet, *syncstore.Manifest, error) {
	if !s.mu.TryLock() {
		return nil, nil, ErrBusy
	}
	defer s.mu.Unlock()

	manifest, err := s.client.FetchManifest(ctx)
	if err != nil {
		return nil, nil, err
	}
	local, err := s.journal.State()
	if err != nil {
		return nil, nil, err
	}
	return CheckForChanges(local, manifest), manifest, nil
}

// run is the shared guard for mutating operations.
func (s *Syncer) run(fn func() error) error {
	if !s.mu.TryLock() {
		return ErrBusy
	}
	defer s.mu.Unlock()
	return fn()
}

// recordSnapshot replaces the journal snapshot with the applied manifest's
// file table and stamps the sync metadata.
func (s *Syncer) recordSnapshot(manifest *syncstore.Manifest) error {
	if err := s.journal.Replace(manifest.Files); err != nil {
		return err
	}
	if err := s.journal.SetMeta(MetaContentVersion, manifest.ContentVersion); err != nil {
		return err
	}
	if err := s.journal.SetMeta(MetaRemoteURL, s.client.BaseURL()); err != nil {
		return err
	}
	return s.journal.SetMeta(MetaLastSynced, time.Now().UTC().Format(time.RFC3339))
}

// fileEntry looks up a path in the manifest's file table. Every path the
// store references must be present there; a miss means a broken manifest.
func fileEntry(manifest *syncstore.Manifest, path string) (syncstore.FileEntry, error) {
	entry, ok := manifest.Files[path]
	if !ok {
		return syncstore.FileEntry{}, fmt.Errorf("manifest has no entry for %s", path)
	}
	return entry, nil
}

// progressTracker counts downloads against the manifest's file total.
type progressTracker struct {
	fn    syncstore.ProgressFunc
	done  int
	total int
}

func (p *progressTracker) step(name string) {
	p.done++
	if p.fn != nil {
		p.fn(name, p.done, p.total)
	}
}

// The apply* helpers upsert decoded entities by stable id. Both bootstrap and
// pull go through them, so re-running either operation converges on the remote
// state instead of duplicating entities.

func (s *Syncer) applyCategory(c *blog.Category) error {
	existing, err := s.store.GetCategoryBySyncID(c.SyncID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return s.store.CreateCategory(c)
		}
		return err
	}
	c.LocalID = existing.LocalID
	return s.store.UpdateCategory(c)
}

func (s *Syncer) applyTag(t *blog.Tag) error {
	existing, err := s.store.GetTagBySyncID(t.SyncID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return s.store.CreateTag(t)
		}
		return err
	}
	t.LocalID = existing.LocalID
	return s.store.UpdateTag(t)
}

func (s *Syncer) applySidebar(o *blog.SidebarObject) error {
	existing, err := s.store.GetSidebarObjectBySyncID(o.SyncID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return s.store.CreateSidebarObject(o)
		}
		return err
	}
	o.LocalID = existing.LocalID
	return s.store.UpdateSidebarObject(o)
}

func (s *Syncer) applyStaticFile(filename string, data []byte) error {
	existing, err := s.store.GetStaticFileBySyncID(filename)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return s.store.CreateStaticFile(&blog.StaticFile{SyncID: filename, Filename: filename, Data: data})
		}
		return err
	}
	existing.Data = data
	return s.store.UpdateStaticFile(existing)
}

// applyPost attaches fetched embed image bytes to a decoded post and upserts
// it by stable id.
func (s *Syncer) applyPost(p *blog.Post, images map[string][]byte) error {
	if p.Embed != nil {
		for i := range p.Embed.Images {
			name := syncstore.EmbedImageFilename(p.Embed.Images[i].SourceURL)
			if data, ok := images[name]; ok {
				p.Embed.Images[i].Data = data
			}
		}
	}

	existing, err := s.store.GetPostBySyncID(p.SyncID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return s.store.CreatePost(p)
		}
		return err
	}

	// Keep any locally cached image bytes the remote pull did not re-fetch.
	if p.Embed != nil && existing.Embed != nil {
		cached := make(map[string][]byte, len(existing.Embed.Images))
		for _, img := range existing.Embed.Images {
			if len(img.Data) > 0 {
				cached[img.SourceURL] = img.Data
			}
		}
		for i := range p.Embed.Images {
			if len(p.Embed.Images[i].Data) == 0 {
				p.Embed.Images[i].Data = cached[p.Embed.Images[i].SourceURL]
			}
		}
	}

	p.LocalID = existing.LocalID
	return s.store.UpdatePost(p)
}
