package syncer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/quillbox/quillbox/internal/canonical"
	"github.com/quillbox/quillbox/internal/syncstore"
)

// Legacy revision 1.x stores additionally sync drafts, encrypted under a
// password-derived key and gated by the manifest's encryption field. The
// consumer side still reads that sub-tree; generation never emits it.

// importEncryptedDrafts fetches and decrypts every draft file the manifest
// lists. It is a no-op on current stores (no encryption field) and on legacy
// stores when no password was supplied.
func (s *Syncer) importEncryptedDrafts(ctx context.Context, manifest *syncstore.Manifest, tracker *progressTracker) error {
	enc := manifest.Encryption
	if enc == nil || !enc.HasDrafts {
		return nil
	}
	if s.draftPassword == "" {
		slog.Warn("remote store carries encrypted drafts but no draft password is set; skipping drafts")
		return nil
	}
	key, err := syncstore.DeriveDraftKey(s.draftPassword, enc)
	if err != nil {
		return err
	}
	for path := range manifest.Files {
		if dir, _ := syncstore.SplitPath(path); dir != syncstore.DraftsDir {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.pullEncryptedDraft(ctx, manifest, path, key); err != nil {
			return err
		}
		tracker.step("drafts")
	}
	return nil
}

// pullEncryptedDrafts applies the changed subset of a legacy drafts sub-tree
// during an incremental pull. names are the file names under the drafts dir.
func (s *Syncer) pullEncryptedDrafts(ctx context.Context, manifest *syncstore.Manifest, names []string, tracker *progressTracker) error {
	enc := manifest.Encryption
	if enc == nil || !enc.HasDrafts || s.draftPassword == "" {
		if len(names) > 0 {
			slog.Warn("skipping changed encrypted drafts", "count", len(names))
		}
		return nil
	}
	key, err := syncstore.DeriveDraftKey(s.draftPassword, enc)
	if err != nil {
		return err
	}
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.pullEncryptedDraft(ctx, manifest, syncstore.AssetPath(syncstore.DraftsDir, name), key); err != nil {
			return err
		}
		tracker.step("drafts")
	}
	return nil
}

func (s *Syncer) pullEncryptedDraft(ctx context.Context, manifest *syncstore.Manifest, path string, key []byte) error {
	entry, err := fileEntry(manifest, path)
	if err != nil {
		return err
	}
	data, err := s.client.FetchFile(ctx, path, entry.Hash)
	if err != nil {
		return err
	}
	plaintext, err := syncstore.DecryptDraft(key, data)
	if err != nil {
		return fmt.Errorf("draft %s: %w", path, err)
	}
	var f syncstore.PostFile
	if err := canonical.Unmarshal(plaintext, &f); err != nil {
		return fmt.Errorf("draft %s: decode: %w", path, err)
	}
	p, err := f.Entity()
	if err != nil {
		return err
	}
	p.IsDraft = true
	return s.applyPost(p, nil)
}
