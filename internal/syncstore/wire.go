package syncstore

import (
	"fmt"

	"github.com/quillbox/quillbox/internal/blog"
	"github.com/quillbox/quillbox/internal/canonical"
)

// Wire types are the canonical JSON shapes of entities inside a sync store.
// Optional fields are pointers without omitempty so absent values serialize
// as explicit null, which the canonical encoding requires. Relationship
// fields carry stable sync ids, never local store keys.

type BlogFile struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Author      string `json:"author"`
	Theme       string `json:"theme"`
	Updated     string `json:"updated"`
}

type CategoryFile struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Ordering int    `json:"ordering"`
}

type TagFile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type PostFile struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Content    string     `json:"content"`
	Stub       string     `json:"stub"`
	Ordering   int        `json:"ordering"`
	Created    string     `json:"created"`
	Updated    string     `json:"updated"`
	Published  *string    `json:"published"`
	Categories []string   `json:"categories"`
	Tags       []string   `json:"tags"`
	Embed      *EmbedFile `json:"embed"`
}

type EmbedFile struct {
	Kind        string           `json:"kind"`
	URL         *string          `json:"url"`
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	Thumbnail   *string          `json:"thumbnail"`
	Images      []EmbedImageFile `json:"images"`
}

// EmbedImageFile references one image of an images embed. File is the
// content-addressed name under embed-images/, derived from the source url so
// independently regenerating replicas agree on it.
type EmbedImageFile struct {
	Source string `json:"source"`
	File   string `json:"file"`
}

type SidebarFile struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Ordering int    `json:"ordering"`
}

type ThemeFile struct {
	Identifier string            `json:"identifier"`
	Name       string            `json:"name"`
	Templates  map[string]string `json:"templates"`
	Styles     string            `json:"styles"`
}

// EmbedImageFilename derives the content-addressed asset name for an embed
// image from its source url. The short digest keeps names path-safe and
// collision-resistant without any cross-replica coordination.
func EmbedImageFilename(sourceURL string) string {
	return canonical.HashBytes([]byte(sourceURL))[:16] + ".img"
}

func NewBlogFile(b *blog.Blog) *BlogFile {
	return &BlogFile{
		Name:        b.Name,
		Description: b.Description,
		Author:      b.Author,
		Theme:       b.ThemeID,
		Updated:     canonical.FormatTime(b.UpdatedAt),
	}
}

func (f *BlogFile) Entity() (*blog.Blog, error) {
	updated, err := canonical.ParseTime(f.Updated)
	if err != nil {
		return nil, fmt.Errorf("blog file: %w", err)
	}
	return &blog.Blog{
		Name:        f.Name,
		Description: f.Description,
		Author:      f.Author,
		ThemeID:     f.Theme,
		UpdatedAt:   updated,
	}, nil
}

func NewCategoryFile(c *blog.Category) *CategoryFile {
	return &CategoryFile{ID: c.SyncID, Name: c.Name, Ordering: c.Ordering}
}

func (f *CategoryFile) Entity() *blog.Category {
	return &blog.Category{SyncID: f.ID, Name: f.Name, Ordering: f.Ordering}
}

func NewTagFile(t *blog.Tag) *TagFile {
	return &TagFile{ID: t.SyncID, Name: t.Name}
}

func (f *TagFile) Entity() *blog.Tag {
	return &blog.Tag{SyncID: f.ID, Name: f.Name}
}

func NewPostFile(p *blog.Post) *PostFile {
	f := &PostFile{
		ID:         p.SyncID,
		Title:      p.Title,
		Content:    p.Content,
		Stub:       p.Stub,
		Ordering:   p.Ordering,
		Created:    canonical.FormatTime(p.CreatedAt),
		Updated:    canonical.FormatTime(p.UpdatedAt),
		Published:  canonical.FormatTimePtr(p.PublishedAt),
		Categories: nonNil(p.CategoryIDs),
		Tags:       nonNil(p.TagIDs),
	}
	if p.Embed != nil {
		f.Embed = newEmbedFile(p.Embed)
	}
	return f
}

func newEmbedFile(e *blog.Embed) *EmbedFile {
	f := &EmbedFile{
		Kind:        string(e.Kind),
		Title:       e.Title,
		Description: e.Description,
		Thumbnail:   e.ThumbnailURL,
	}
	if e.URL != "" {
		u := e.URL
		f.URL = &u
	}
	if e.Kind == blog.EmbedImages {
		f.Images = make([]EmbedImageFile, len(e.Images))
		for i, img := range e.Images {
			f.Images[i] = EmbedImageFile{
				Source: img.SourceURL,
				File:   EmbedImageFilename(img.SourceURL),
			}
		}
	}
	return f
}

func (f *PostFile) Entity() (*blog.Post, error) {
	created, err := canonical.ParseTime(f.Created)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", f.ID, err)
	}
	updated, err := canonical.ParseTime(f.Updated)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", f.ID, err)
	}
	published, err := canonical.ParseTimePtr(f.Published)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", f.ID, err)
	}
	p := &blog.Post{
		SyncID:      f.ID,
		Title:       f.Title,
		Content:     f.Content,
		Stub:        f.Stub,
		Ordering:    f.Ordering,
		CreatedAt:   created,
		UpdatedAt:   updated,
		PublishedAt: published,
		CategoryIDs: nonNil(f.Categories),
		TagIDs:      nonNil(f.Tags),
	}
	if f.Embed != nil {
		e := &blog.Embed{
			Kind:         blog.EmbedKind(f.Embed.Kind),
			Title:        f.Embed.Title,
			Description:  f.Embed.Description,
			ThumbnailURL: f.Embed.Thumbnail,
		}
		if f.Embed.URL != nil {
			e.URL = *f.Embed.URL
		}
		for _, img := range f.Embed.Images {
			e.Images = append(e.Images, blog.EmbedImage{SourceURL: img.Source})
		}
		p.Embed = e
	}
	return p, nil
}

func NewSidebarFile(s *blog.SidebarObject) *SidebarFile {
	return &SidebarFile{ID: s.SyncID, Title: s.Title, Content: s.Content, Ordering: s.Ordering}
}

func (f *SidebarFile) Entity() *blog.SidebarObject {
	return &blog.SidebarObject{SyncID: f.ID, Title: f.Title, Content: f.Content, Ordering: f.Ordering}
}

func NewThemeFile(t *blog.Theme) *ThemeFile {
	templates := t.Templates
	if templates == nil {
		templates = map[string]string{}
	}
	return &ThemeFile{Identifier: t.Identifier, Name: t.Name, Templates: templates, Styles: t.Styles}
}

func (f *ThemeFile) Entity() *blog.Theme {
	return &blog.Theme{Identifier: f.Identifier, Name: f.Name, Templates: f.Templates, Styles: f.Styles}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
