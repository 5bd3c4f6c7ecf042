package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/quillbox/quillbox/internal/blog"
	"github.com/quillbox/quillbox/internal/db"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS blog (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    author TEXT NOT NULL DEFAULT '',
    theme_id TEXT NOT NULL DEFAULT 'default',
    updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS categories (
    local_id TEXT PRIMARY KEY,
    sync_id TEXT NOT NULL DEFAULT '',
    name TEXT NOT NULL,
    ordering INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_categories_sync_id ON categories(sync_id);

CREATE TABLE IF NOT EXISTS tags (
    local_id TEXT PRIMARY KEY,
    sync_id TEXT NOT NULL DEFAULT '',
    name TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_tags_sync_id ON tags(sync_id);

CREATE TABLE IF NOT EXISTS posts (
    local_id TEXT PRIMARY KEY,
    sync_id TEXT NOT NULL DEFAULT '',
    title TEXT NOT NULL,
    content TEXT NOT NULL,
    stub TEXT NOT NULL,
    is_draft INTEGER NOT NULL DEFAULT 0,
    ordering INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    published_at TEXT,
    category_ids TEXT NOT NULL DEFAULT '[]',
    tag_ids TEXT NOT NULL DEFAULT '[]',
    embed TEXT
);
CREATE INDEX IF NOT EXISTS idx_posts_sync_id ON posts(sync_id);
CREATE UNIQUE INDEX IF NOT EXISTS idx_posts_stub ON posts(stub);

CREATE TABLE IF NOT EXISTS sidebar_objects (
    local_id TEXT PRIMARY KEY,
    sync_id TEXT NOT NULL DEFAULT '',
    title TEXT NOT NULL,
    content TEXT NOT NULL,
    ordering INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_sidebar_sync_id ON sidebar_objects(sync_id);

CREATE TABLE IF NOT EXISTS static_files (
    local_id TEXT PRIMARY KEY,
    sync_id TEXT NOT NULL DEFAULT '',
    filename TEXT NOT NULL UNIQUE,
    data BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_static_files_sync_id ON static_files(sync_id);
`

// SQLiteStore is a ContentStore backed by a local SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

var _ ContentStore = (*SQLiteStore)(nil)

// OpenSQLiteStore opens (or creates) the store at dbPath. Use ":memory:" for
// an ephemeral database.
func OpenSQLiteStore(dbPath string) (*SQLiteStore, error) {
	conn, err := db.NewSqliteDb(db.WithPath(dbPath), db.WithMaxOpenConns(1))
	if err != nil {
		return nil, fmt.Errorf("open content store: %w", err)
	}
	if _, err := conn.Exec(sqliteSchema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("init content store schema: %w", err)
	}
	return &SQLiteStore{db: conn}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type blogRow struct {
	Name        string `db:"name"`
	Description string `db:"description"`
	Author      string `db:"author"`
	ThemeID     string `db:"theme_id"`
	UpdatedAt   string `db:"updated_at"`
}

func (s *SQLiteStore) GetBlog() (*blog.Blog, error) {
	var row blogRow
	err := s.db.Get(&row, "SELECT name, description, author, theme_id, updated_at FROM blog WHERE id = 1")
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoBlog
		}
		return nil, fmt.Errorf("get blog: %w", err)
	}
	updated, err := time.Parse(time.RFC3339, row.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get blog: %w", err)
	}
	return &blog.Blog{
		Name:        row.Name,
		Description: row.Description,
		Author:      row.Author,
		ThemeID:     row.ThemeID,
		UpdatedAt:   updated,
	}, nil
}

func (s *SQLiteStore) SetBlog(b *blog.Blog) error {
	_, err := s.db.Exec(`INSERT INTO blog (id, name, description, author, theme_id, updated_at)
		VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name=excluded.name, description=excluded.description,
			author=excluded.author, theme_id=excluded.theme_id, updated_at=excluded.updated_at`,
		b.Name, b.Description, b.Author, b.ThemeID, b.UpdatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("set blog: %w", err)
	}
	return nil
}

type categoryRow struct {
	LocalID  string `db:"local_id"`
	SyncID   string `db:"sync_id"`
	Name     string `db:"name"`
	Ordering int    `db:"ordering"`
}

func (r *categoryRow) entity() *blog.Category {
	return &blog.Category{LocalID: r.LocalID, SyncID: r.SyncID, Name: r.Name, Ordering: r.Ordering}
}

func (s *SQLiteStore) ListCategories() ([]*blog.Category, error) {
	var rows []categoryRow
	if err := s.db.Select(&rows, "SELECT local_id, sync_id, name, ordering FROM categories ORDER BY ordering, local_id"); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	out := make([]*blog.Category, len(rows))
	for i := range rows {
		out[i] = rows[i].entity()
	}
	return out, nil
}

func (s *SQLiteStore) getCategory(col, val string) (*blog.Category, error) {
	var row categoryRow
	err := s.db.Get(&row, "SELECT local_id, sync_id, name, ordering FROM categories WHERE "+col+" = ?", val)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get category: %w", err)
	}
	return row.entity(), nil
}

func (s *SQLiteStore) GetCategory(localID string) (*blog.Category, error) {
	return s.getCategory("local_id", localID)
}

func (s *SQLiteStore) GetCategoryBySyncID(syncID string) (*blog.Category, error) {
	return s.getCategory("sync_id", syncID)
}

func (s *SQLiteStore) CreateCategory(c *blog.Category) error {
	if c.LocalID == "" {
		c.LocalID = uuid.NewString()
	}
	_, err := s.db.Exec("INSERT INTO categories (local_id, sync_id, name, ordering) VALUES (?, ?, ?, ?)",
		c.LocalID, c.SyncID, c.Name, c.Ordering)
	if err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

func (s *SQLiteStore) UpdateCategory(c *blog.Category) error {
	res, err := s.db.Exec("UPDATE categories SET sync_id = ?, name = ?, ordering = ? WHERE local_id = ?",
		c.SyncID, c.Name, c.Ordering, c.LocalID)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return checkAffected(res)
}

func (s *SQLiteStore) DeleteCategory(localID string) error {
	res, err := s.db.Exec("DELETE FROM categories WHERE local_id = ?", localID)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return checkAffected(res)
}

type tagRow struct {
	LocalID string `db:"local_id"`
	SyncID  string `db:"sync_id"`
	Name    string `db:"name"`
}

func (r *tagRow) entity() *blog.Tag {
	return &blog.Tag{LocalID: r.LocalID, SyncID: r.SyncID, Name: r.Name}
}

func (s *SQLiteStore) ListTags() ([]*blog.Tag, error) {
	var rows []tagRow
	if err := s.db.Select(&rows, "SELECT local_id, sync_id, name FROM tags ORDER BY local_id"); err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	out := make([]*blog.Tag, len(rows))
	for i := range rows {
		out[i] = rows[i].entity()
	}
	return out, nil
}

func (s *SQLiteStore) getTag(col, val string) (*blog.Tag, error) {
	var row tagRow
	err := s.db.Get(&row, "SELECT local_id, sync_id, name FROM tags WHERE "+col+" = ?", val)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get tag: %w", err)
	}
	return row.entity(), nil
}

func (s *SQLiteStore) GetTag(localID string) (*blog.Tag, error) {
	return s.getTag("local_id", localID)
}

func (s *SQLiteStore) GetTagBySyncID(syncID string) (*blog.Tag, error) {
	return s.getTag("sync_id", syncID)
}

func (s *SQLiteStore) CreateTag(t *blog.Tag) error {
	if t.LocalID == "" {
		t.LocalID = uuid.NewString()
	}
	if _, err := s.db.Exec("INSERT INTO tags (local_id, sync_id, name) VALUES (?, ?, ?)", t.LocalID, t.SyncID, t.Name); err != nil {
		return fmt.Errorf("create tag: %w", err)
	}
	return nil
}

func (s *SQLiteStore) UpdateTag(t *blog.Tag) error {
	res, err := s.db.Exec("UPDATE tags SET sync_id = ?, name = ? WHERE local_id = ?", t.SyncID, t.Name, t.LocalID)
	if err != nil {
		return fmt.Errorf("update tag: %w", err)
	}
	return checkAffected(res)
}

func (s *SQLiteStore) DeleteTag(localID string) error {
	res, err := s.db.Exec("DELETE FROM tags WHERE local_id = ?", localID)
	if err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	return checkAffected(res)
}

type postRow struct {
	LocalID     string         `db:"local_id"`
	SyncID      string         `db:"sync_id"`
	Title       string         `db:"title"`
	Content     string         `db:"content"`
	Stub        string         `db:"stub"`
	IsDraft     bool           `db:"is_draft"`
	Ordering    int            `db:"ordering"`
	CreatedAt   string         `db:"created_at"`
	UpdatedAt   string         `db:"updated_at"`
	PublishedAt sql.NullString `db:"published_at"`
	CategoryIDs string         `db:"category_ids"`
	TagIDs      string         `db:"tag_ids"`
	Embed       sql.NullString `db:"embed"`
}

func (r *postRow) entity() (*blog.Post, error) {
	created, err := time.Parse(time.RFC3339, r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("post %s: parse created_at: %w", r.LocalID, err)
	}
	updated, err := time.Parse(time.RFC3339, r.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("post %s: parse updated_at: %w", r.LocalID, err)
	}
	p := &blog.Post{
		LocalID:   r.LocalID,
		SyncID:    r.SyncID,
		Title:     r.Title,
		Content:   r.Content,
		Stub:      r.Stub,
		IsDraft:   r.IsDraft,
		Ordering:  r.Ordering,
		CreatedAt: created,
		UpdatedAt: updated,
	}
	if r.PublishedAt.Valid {
		published, err := time.Parse(time.RFC3339, r.PublishedAt.String)
		if err != nil {
			return nil, fmt.Errorf("post %s: parse published_at: %w", r.LocalID, err)
		}
		p.PublishedAt = &published
	}
	if err := json.Unmarshal([]byte(r.CategoryIDs), &p.CategoryIDs); err != nil {
		return nil, fmt.Errorf("post %s: decode category ids: %w", r.LocalID, err)
	}
	if err := json.Unmarshal([]byte(r.TagIDs), &p.TagIDs); err != nil {
		return nil, fmt.Errorf("post %s: decode tag ids: %w", r.LocalID, err)
	}
	if r.Embed.Valid && r.Embed.String != "" {
		var e blog.Embed
		if err := json.Unmarshal([]byte(r.Embed.String), &e); err != nil {
			return nil, fmt.Errorf("post %s: decode embed: %w", r.LocalID, err)
		}
		p.Embed = &e
	}
	return p, nil
}

func postToRow(p *blog.Post) (*postRow, error) {
	catIDs, err := json.Marshal(orEmpty(p.CategoryIDs))
	if err != nil {
		return nil, err
	}
	tagIDs, err := json.Marshal(orEmpty(p.TagIDs))
	if err != nil {
		return nil, err
	}
	row := &postRow{
		LocalID:     p.LocalID,
		SyncID:      p.SyncID,
		Title:       p.Title,
		Content:     p.Content,
		Stub:        p.Stub,
		IsDraft:     p.IsDraft,
		Ordering:    p.Ordering,
		CreatedAt:   p.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   p.UpdatedAt.UTC().Format(time.RFC3339),
		CategoryIDs: string(catIDs),
		TagIDs:      string(tagIDs),
	}
	if p.PublishedAt != nil {
		row.PublishedAt = sql.NullString{String: p.PublishedAt.UTC().Format(time.RFC3339), Valid: true}
	}
	if p.Embed != nil {
		embed, err := json.Marshal(p.Embed)
		if err != nil {
			return nil, err
		}
		row.Embed = sql.NullString{String: string(embed), Valid: true}
	}
	return row, nil
}

const postColumns = "local_id, sync_id, title, content, stub, is_draft, ordering, created_at, updated_at, published_at, category_ids, tag_ids, embed"

func (s *SQLiteStore) ListPosts(includeDrafts bool) ([]*blog.Post, error) {
	query := "SELECT " + postColumns + " FROM posts"
	if !includeDrafts {
		query += " WHERE is_draft = 0"
	}
	query += " ORDER BY created_at, local_id"

	var rows []postRow
	if err := s.db.Select(&rows, query); err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	out := make([]*blog.Post, len(rows))
	for i := range rows {
		p, err := rows[i].entity()
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}

func (s *SQLiteStore) getPost(col, val string) (*blog.Post, error) {
	var row postRow
	err := s.db.Get(&row, "SELECT "+postColumns+" FROM posts WHERE "+col+" = ?", val)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get post: %w", err)
	}
	return row.entity()
}

func (s *SQLiteStore) GetPost(localID string) (*blog.Post, error) {
	return s.getPost("local_id", localID)
}

func (s *SQLiteStore) GetPostBySyncID(syncID string) (*blog.Post, error) {
	return s.getPost("sync_id", syncID)
}

func (s *SQLiteStore) CreatePost(p *blog.Post) error {
	if p.LocalID == "" {
		p.LocalID = uuid.NewString()
	}
	row, err := postToRow(p)
	if err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	_, err = s.db.NamedExec(`INSERT INTO posts (local_id, sync_id, title, content, stub, is_draft, ordering, created_at, updated_at, published_at, category_ids, tag_ids, embed)
		VALUES (:local_id, :sync_id, :title, :content, :stub, :is_draft, :ordering, :created_at, :updated_at, :published_at, :category_ids, :tag_ids, :embed)`, row)
	if err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	return nil
}

func (s *SQLiteStore) UpdatePost(p *blog.Post) error {
	row, err := postToRow(p)
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	res, err := s.db.NamedExec(`UPDATE posts SET sync_id = :sync_id, title = :title, content = :content, stub = :stub,
		is_draft = :is_draft, ordering = :ordering, created_at = :created_at, updated_at = :updated_at,
		published_at = :published_at, category_ids = :category_ids, tag_ids = :tag_ids, embed = :embed
		WHERE local_id = :local_id`, row)
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	return checkAffected(res)
}

func (s *SQLiteStore) DeletePost(localID string) error {
	res, err := s.db.Exec("DELETE FROM posts WHERE local_id = ?", localID)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	return checkAffected(res)
}

type sidebarRow struct {
	LocalID  string `db:"local_id"`
	SyncID   string `db:"sync_id"`
	Title    string `db:"title"`
	Content  string `db:"content"`
	Ordering int    `db:"ordering"`
}

func (r *sidebarRow) entity() *blog.SidebarObject {
	return &blog.SidebarObject{LocalID: r.LocalID, SyncID: r.SyncID, Title: r.Title, Content: r.Content, Ordering: r.Ordering}
}

func (s *SQLiteStore) ListSidebarObjects() ([]*blog.SidebarObject, error) {
	var rows []sidebarRow
	if err := s.db.Select(&rows, "SELECT local_id, sync_id, title, content, ordering FROM sidebar_objects ORDER BY ordering, local_id"); err != nil {
		return nil, fmt.Errorf("list sidebar objects: %w", err)
	}
	out := make([]*blog.SidebarObject, len(rows))
	for i := range rows {
		out[i] = rows[i].entity()
	}
	return out, nil
}

func (s *SQLiteStore) GetSidebarObjectBySyncID(syncID string) (*blog.SidebarObject, error) {
	var row sidebarRow
	err := s.db.Get(&row, "SELECT local_id, sync_id, title, content, ordering FROM sidebar_objects WHERE sync_id = ?", syncID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get sidebar object: %w", err)
	}
	return row.entity(), nil
}

func (s *SQLiteStore) CreateSidebarObject(o *blog.SidebarObject) error {
	if o.LocalID == "" {
		o.LocalID = uuid.NewString()
	}
	_, err := s.db.Exec("INSERT INTO sidebar_objects (local_id, sync_id, title, content, ordering) VALUES (?, ?, ?, ?, ?)",
		o.LocalID, o.SyncID, o.Title, o.Content, o.Ordering)
	if err != nil {
		return fmt.Errorf("create sidebar object: %w", err)
	}
	return nil
}

func (s *SQLiteStore) UpdateSidebarObject(o *blog.SidebarObject) error {
	res, err := s.db.Exec("UPDATE sidebar_objects SET sync_id = ?, title = ?, content = ?, ordering = ? WHERE local_id = ?",
		o.SyncID, o.Title, o.Content, o.Ordering, o.LocalID)
	if err != nil {
		return fmt.Errorf("update sidebar object: %w", err)
	}
	return checkAffected(res)
}

func (s *SQLiteStore) DeleteSidebarObject(localID string) error {
	res, err := s.db.Exec("DELETE FROM sidebar_objects WHERE local_id = ?", localID)
	if err != nil {
		return fmt.Errorf("delete sidebar object: %w", err)
	}
	return checkAffected(res)
}

type staticFileRow struct {
	LocalID  string `db:"local_id"`
	SyncID   string `db:"sync_id"`
	Filename string `db:"filename"`
	Data     []byte `db:"data"`
}

func (r *staticFileRow) entity() *blog.StaticFile {
	return &blog.StaticFile{LocalID: r.LocalID, SyncID: r.SyncID, Filename: r.Filename, Data: r.Data}
}

func (s *SQLiteStore) ListStaticFiles() ([]*blog.StaticFile, error) {
	var rows []staticFileRow
	if err := s.db.Select(&rows, "SELECT local_id, sync_id, filename, data FROM static_files ORDER BY filename"); err != nil {
		return nil, fmt.Errorf("list static files: %w", err)
	}
	out := make([]*blog.StaticFile, len(rows))
	for i := range rows {
		out[i] = rows[i].entity()
	}
	return out, nil
}

func (s *SQLiteStore) GetStaticFileBySyncID(syncID string) (*blog.StaticFile, error) {
	var row staticFileRow
	err := s.db.Get(&row, "SELECT local_id, sync_id, filename, data FROM static_files WHERE sync_id = ?", syncID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get static file: %w", err)
	}
	return row.entity(), nil
}

func (s *SQLiteStore) CreateStaticFile(f *blog.StaticFile) error {
	if f.LocalID == "" {
		f.LocalID = uuid.NewString()
	}
	_, err := s.db.Exec("INSERT INTO static_files (local_id, sync_id, filename, data) VALUES (?, ?, ?, ?)",
		f.LocalID, f.SyncID, f.Filename, f.Data)
	if err != nil {
		return fmt.Errorf("create static file: %w", err)
	}
	return nil
}

func (s *SQLiteStore) UpdateStaticFile(f *blog.StaticFile) error {
	res, err := s.db.Exec("UPDATE static_files SET sync_id = ?, filename = ?, data = ? WHERE local_id = ?",
		f.SyncID, f.Filename, f.Data, f.LocalID)
	if err != nil {
		return fmt.Errorf("update static file: %w", err)
	}
	return checkAffected(res)
}

func (s *SQLiteStore) DeleteStaticFile(localID string) error {
	res, err := s.db.Exec("DELETE FROM static_files WHERE local_id = ?", localID)
	if err != nil {
		return fmt.Errorf("delete static file: %w", err)
	}
	return checkAffected(res)
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
