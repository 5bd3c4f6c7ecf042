package themes

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/quillbox/quillbox/internal/blog"
	"github.com/quillbox/quillbox/internal/canonical"
	"github.com/quillbox/quillbox/internal/utils"
)

// DirRegistry persists themes as one JSON file per identifier, so a theme
// imported from a sync store survives process restarts.
type DirRegistry struct {
	dir string
}

type themeFile struct {
	Name      string            `json:"name"`
	Templates map[string]string `json:"templates"`
	Styles    string            `json:"styles"`
}

func NewDirRegistry(dir string) *DirRegistry {
	return &DirRegistry{dir: dir}
}

func (r *DirRegistry) path(identifier string) string {
	return filepath.Join(r.dir, identifier+".json")
}

func (r *DirRegistry) Get(identifier string) *blog.Theme {
	data, err := os.ReadFile(r.path(identifier))
	if err != nil {
		return nil
	}
	var f themeFile
	if err := canonical.Unmarshal(data, &f); err != nil {
		slog.Warn("theme registry: unreadable theme file", "identifier", identifier, "error", err)
		return nil
	}
	return &blog.Theme{
		Identifier: identifier,
		Name:       f.Name,
		Templates:  f.Templates,
		Styles:     f.Styles,
	}
}

func (r *DirRegistry) Add(t *blog.Theme) {
	data, err := canonical.Marshal(&themeFile{
		Name:      t.Name,
		Templates: t.Templates,
		Styles:    t.Styles,
	})
	if err != nil {
		slog.Error("theme registry: encode theme", "identifier", t.Identifier, "error", err)
		return
	}
	if err := utils.EnsureDir(r.dir); err != nil {
		slog.Error("theme registry: create dir", "dir", r.dir, "error", err)
		return
	}
	if err := os.WriteFile(r.path(t.Identifier), data, 0o644); err != nil {
		slog.Error("theme registry: write theme", "identifier", t.Identifier, "error", err)
	}
}

var _ WritableRegistry = (*DirRegistry)(nil)
