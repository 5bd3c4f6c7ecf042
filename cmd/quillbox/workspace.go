package main

import (
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/spf13/viper"

	"github.com/quillbox/quillbox/internal/store"
	"github.com/quillbox/quillbox/internal/syncer"
	"github.com/quillbox/quillbox/internal/syncsdk"
	"github.com/quillbox/quillbox/internal/themes"
	"github.com/quillbox/quillbox/internal/utils"
)

const (
	contentDBFile = "quillbox.db"
	journalDBFile = "journal.db"
	syncDirName   = "sync"
	themesDirName = "themes"
	lockFileName  = "quillbox.lock"
)

// workspace is one blog's on-disk home: the content database, sync journal,
// persisted themes and the published sync store, guarded by a process-level
// lock so two quillbox invocations cannot mutate the same blog at once.
type workspace struct {
	Root    string
	SyncDir string

	flock *flock.Flock
}

func openWorkspace() (*workspace, error) {
	root, err := utils.ResolvePath(viper.GetString("data_dir"))
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}
	if err := utils.EnsureDir(root); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	return &workspace{
		Root:    root,
		SyncDir: filepath.Join(root, syncDirName),
		flock:   flock.New(filepath.Join(root, lockFileName)),
	}, nil
}

func (w *workspace) Lock() error {
	locked, err := w.flock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire workspace lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another quillbox process is using %s", w.Root)
	}
	return nil
}

func (w *workspace) Unlock() {
	w.flock.Unlock()
}

func (w *workspace) openStore() (*store.SQLiteStore, error) {
	return store.OpenSQLiteStore(filepath.Join(w.Root, contentDBFile))
}

func (w *workspace) themeRegistry() *themes.DirRegistry {
	return themes.NewDirRegistry(filepath.Join(w.Root, themesDirName))
}

// openSyncer wires up the full consuming side against the configured server.
// The returned cleanup closes the store and journal.
func (w *workspace) openSyncer(baseURL string, opts ...syncer.Option) (*syncer.Syncer, func(), error) {
	cs, err := w.openStore()
	if err != nil {
		return nil, nil, err
	}

	journal := syncer.NewJournal(filepath.Join(w.Root, journalDBFile))
	if err := journal.Open(); err != nil {
		cs.Close()
		return nil, nil, err
	}

	s := syncer.New(cs, w.themeRegistry(), syncsdk.New(baseURL), journal, opts...)
	cleanup := func() {
		journal.Close()
		cs.Close()
	}
	return s, cleanup, nil
}
