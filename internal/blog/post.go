package blog

import "time"

// EmbedKind discriminates the three embed payloads a post can carry.
type EmbedKind string

const (
	EmbedLink   EmbedKind = "link"
	EmbedVideo  EmbedKind = "video"
	EmbedImages EmbedKind = "images"
)

// Embed is an optional rich attachment on a post: an external link preview, a
// video reference, or an ordered list of images.
type Embed struct {
	Kind         EmbedKind
	URL          string // source url for link and video embeds
	Title        *string
	Description  *string
	ThumbnailURL *string
	Images       []EmbedImage // ordered, images embeds only
}

// EmbedImage is one image of an images embed. The binary payload is stored by
// the content store; the sync store addresses it by a digest of SourceURL so
// two replicas derive the same filename without coordination.
type EmbedImage struct {
	SourceURL string
	Data      []byte
}

// Post is a single blog post. Drafts stay local to each replica and are never
// part of the synced set.
type Post struct {
	LocalID     string
	SyncID      string
	Title       string
	Content     string
	Stub        string // url-safe slug, unique within the blog
	IsDraft     bool
	Ordering    int
	CreatedAt   time.Time
	UpdatedAt   time.Time
	PublishedAt *time.Time
	CategoryIDs []string // stable sync ids of categories
	TagIDs      []string // stable sync ids of tags
	Embed       *Embed
}

func (p *Post) StableID() string      { return p.SyncID }
func (p *Post) SetStableID(id string) { p.SyncID = id }
func (p *Post) LocalKey() string      { return p.LocalID }
