package syncstore

import (
	"bytes"
	"fmt"

	"github.com/quillbox/quillbox/internal/blog"
	"github.com/quillbox/quillbox/internal/canonical"
)

// feedLimit caps how many recent posts the feed carries.
const feedLimit = 20

type Feed struct {
	Blog    string      `json:"blog"`
	Entries []FeedEntry `json:"entries"`
}

type FeedEntry struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Stub      string  `json:"stub"`
	Published *string `json:"published"`
}

// NewFeed builds the feed.json housekeeping output: the most recent posts,
// newest first. Deterministic for a given content set, but regenerated on
// every publish, so change detection ignores it.
func NewFeed(b *blog.Blog, posts []*blog.Post) *Feed {
	recent := make([]*blog.Post, len(posts))
	copy(recent, posts)
	// posts arrive oldest-first from the store listing
	for i, j := 0, len(recent)-1; i < j; i, j = i+1, j-1 {
		recent[i], recent[j] = recent[j], recent[i]
	}
	if len(recent) > feedLimit {
		recent = recent[:feedLimit]
	}

	entries := make([]FeedEntry, 0, len(recent))
	for _, p := range recent {
		entries = append(entries, FeedEntry{
			ID:        p.SyncID,
			Title:     p.Title,
			Stub:      p.Stub,
			Published: canonical.FormatTimePtr(p.PublishedAt),
		})
	}
	return &Feed{Blog: b.Name, Entries: entries}
}

// Sitemap renders the sitemap.xml housekeeping output from post stubs.
func Sitemap(posts []*blog.Post) []byte {
	var buf bytes.Buffer
	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	buf.WriteString(`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">` + "\n")
	for _, p := range posts {
		fmt.Fprintf(&buf, "  <url><loc>/%s</loc><lastmod>%s</lastmod></url>\n",
			p.Stub, canonical.FormatTime(p.UpdatedAt))
	}
	buf.WriteString("</urlset>\n")
	return buf.Bytes()
}
