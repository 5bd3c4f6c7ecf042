package blog

// Category groups posts. Referenced from posts by stable sync id.
type Category struct {
	LocalID  string
	SyncID   string
	Name     string
	Ordering int
}

func (c *Category) StableID() string      { return c.SyncID }
func (c *Category) SetStableID(id string) { c.SyncID = id }
func (c *Category) LocalKey() string      { return c.LocalID }

// Tag is a free-form label on posts. Referenced from posts by stable sync id.
type Tag struct {
	LocalID string
	SyncID  string
	Name    string
}

func (t *Tag) StableID() string      { return t.SyncID }
func (t *Tag) SetStableID(id string) { t.SyncID = id }
func (t *Tag) LocalKey() string      { return t.LocalID }

// SidebarObject is one widget in the blog sidebar.
type SidebarObject struct {
	LocalID  string
	SyncID   string
	Title    string
	Content  string
	Ordering int
}

func (s *SidebarObject) StableID() string      { return s.SyncID }
func (s *SidebarObject) SetStableID(id string) { s.SyncID = id }
func (s *SidebarObject) LocalKey() string      { return s.LocalID }

// StaticFile is an arbitrary file published alongside the blog (favicons,
// robots.txt, uploaded assets). Addressed in the sync store by filename.
type StaticFile struct {
	LocalID  string
	SyncID   string
	Filename string
	Data     []byte
}

func (f *StaticFile) StableID() string      { return f.SyncID }
func (f *StaticFile) SetStableID(id string) { f.SyncID = id }
func (f *StaticFile) LocalKey() string      { return f.LocalID }
