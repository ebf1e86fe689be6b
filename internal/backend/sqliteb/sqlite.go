// Package sqliteb persists collections in a SQLite database via the
// cgo-free modernc driver.
package sqliteb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/MrSnakeDoc/bookshelf/internal/domain"
	"github.com/MrSnakeDoc/bookshelf/internal/utils"
)

const currentSchemaVersion = 1

// timeFormat is RFC3339 with fixed-width nanoseconds. Timestamps are
// stored in UTC so the strings sort chronologically under ORDER BY;
// RFC3339Nano trims trailing zeros and breaks lexicographic order.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// Backend implements the persistence contract on a SQLite file.
type Backend struct {
	db   *sql.DB
	path string
}

// New opens (or creates) the database, applies pragmas and migrations.
func New(path string) (*Backend, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, &domain.PersistenceError{Op: "sqlite.init", Err: err}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "sqlite.open", Err: err}
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			utils.Close(db)
			return nil, &domain.PersistenceError{Op: "sqlite.pragma", Err: err}
		}
	}

	b := &Backend{db: db, path: path}
	if err := b.migrate(); err != nil {
		utils.Close(db)
		return nil, err
	}

	return b, nil
}

// Path returns the database file path.
func (b *Backend) Path() string {
	return b.path
}

// Close closes the database connection.
func (b *Backend) Close() error {
	return b.db.Close()
}

func (b *Backend) migrate() error {
	var version int
	err := b.db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err != nil {
		// Table doesn't exist or is empty, start fresh
		version = 0
	}

	if version < 1 {
		if err := b.migrateV1(); err != nil {
			return &domain.PersistenceError{Op: "sqlite.migrate", Err: err}
		}
	}

	return nil
}

func (b *Backend) migrateV1() error {
	schema := `
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		);

		CREATE TABLE IF NOT EXISTS items (
			id TEXT PRIMARY KEY NOT NULL,
			owner_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			url TEXT,
			title TEXT NOT NULL,
			site_name TEXT,
			description TEXT,
			thumbnail_url TEXT,
			custom_image_url TEXT,
			note_body TEXT,
			tags TEXT NOT NULL DEFAULT '[]',
			is_starred INTEGER NOT NULL DEFAULT 0,
			view_count INTEGER NOT NULL DEFAULT 0,
			last_viewed_at TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			image_source TEXT NOT NULL DEFAULT 'fallback'
		);

		CREATE INDEX IF NOT EXISTS idx_items_owner_id ON items(owner_id);
		CREATE INDEX IF NOT EXISTS idx_items_url ON items(url);

		INSERT OR REPLACE INTO schema_version (version) VALUES (1);
	`
	_, err := b.db.Exec(schema)
	return err
}

// FetchAll reads the owner's full collection, oldest first.
func (b *Backend) FetchAll(ctx context.Context, ownerID string) ([]domain.BookmarkItem, error) {
	rows, err := b.db.QueryContext(ctx, `
		SELECT id, owner_id, kind, url, title, site_name, description,
		       thumbnail_url, custom_image_url, note_body, tags,
		       is_starred, view_count, last_viewed_at, created_at,
		       updated_at, image_source
		FROM items
		WHERE owner_id = ?
		ORDER BY created_at
	`, ownerID)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "sqlite.fetchAll", Err: err}
	}
	defer utils.Close(rows)

	items := []domain.BookmarkItem{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, &domain.PersistenceError{Op: "sqlite.scan", Err: err}
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.PersistenceError{Op: "sqlite.fetchAll", Err: err}
	}

	return items, nil
}

// Insert persists a new item row.
func (b *Backend) Insert(ctx context.Context, item domain.BookmarkItem) error {
	tagsJSON, err := json.Marshal(item.Tags)
	if err != nil {
		return &domain.PersistenceError{Op: "sqlite.insert", Err: err}
	}

	var lastViewed sql.NullString
	if item.LastViewedAt != nil {
		lastViewed = sql.NullString{String: item.LastViewedAt.UTC().Format(timeFormat), Valid: true}
	}

	_, err = b.db.ExecContext(ctx, `
		INSERT INTO items (
			id, owner_id, kind, url, title, site_name, description,
			thumbnail_url, custom_image_url, note_body, tags,
			is_starred, view_count, last_viewed_at, created_at,
			updated_at, image_source
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		item.ID, item.OwnerID, string(item.Kind), nullable(item.URL),
		item.Title, nullable(item.SiteName), nullable(item.Description),
		nullable(item.ThumbnailURL), nullable(item.CustomImageURL),
		nullable(item.NoteBody), string(tagsJSON),
		boolToInt(item.IsStarred), item.ViewCount, lastViewed,
		item.CreatedAt.UTC().Format(timeFormat),
		item.UpdatedAt.UTC().Format(timeFormat),
		string(item.ImageSource),
	)
	if err != nil {
		return &domain.PersistenceError{Op: "sqlite.insert", Err: err}
	}
	return nil
}

// Patch loads the row, applies the partial update in memory and
// writes the full row back inside a transaction. Read-modify-write is
// fine here: the store serializes mutations per session.
func (b *Backend) Patch(ctx context.Context, ownerID, id string, p domain.ItemPatch) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return &domain.PersistenceError{Op: "sqlite.patch", Err: err}
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `
		SELECT id, owner_id, kind, url, title, site_name, description,
		       thumbnail_url, custom_image_url, note_body, tags,
		       is_starred, view_count, last_viewed_at, created_at,
		       updated_at, image_source
		FROM items
		WHERE owner_id = ? AND id = ?
	`, ownerID, id)

	it, err := scanItem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &domain.NotFoundError{ID: id}
		}
		return &domain.PersistenceError{Op: "sqlite.patch", Err: err}
	}

	if err := p.Validate(it.Kind); err != nil {
		return err
	}

	it.Apply(p)

	tagsJSON, err := json.Marshal(it.Tags)
	if err != nil {
		return &domain.PersistenceError{Op: "sqlite.patch", Err: err}
	}
	var lastViewed sql.NullString
	if it.LastViewedAt != nil {
		lastViewed = sql.NullString{String: it.LastViewedAt.UTC().Format(timeFormat), Valid: true}
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE items SET
			url = ?, title = ?, site_name = ?, description = ?,
			thumbnail_url = ?, custom_image_url = ?, note_body = ?,
			tags = ?, is_starred = ?, view_count = ?,
			last_viewed_at = ?, updated_at = ?, image_source = ?
		WHERE owner_id = ? AND id = ?
	`,
		nullable(it.URL), it.Title, nullable(it.SiteName),
		nullable(it.Description), nullable(it.ThumbnailURL),
		nullable(it.CustomImageURL), nullable(it.NoteBody),
		string(tagsJSON), boolToInt(it.IsStarred), it.ViewCount,
		lastViewed, it.UpdatedAt.UTC().Format(timeFormat),
		string(it.ImageSource), ownerID, id,
	)
	if err != nil {
		return &domain.PersistenceError{Op: "sqlite.patch", Err: err}
	}

	if err := tx.Commit(); err != nil {
		return &domain.PersistenceError{Op: "sqlite.patch", Err: err}
	}
	return nil
}

// Remove deletes the row. Absent ids succeed.
func (b *Backend) Remove(ctx context.Context, ownerID, id string) error {
	_, err := b.db.ExecContext(ctx,
		"DELETE FROM items WHERE owner_id = ? AND id = ?", ownerID, id)
	if err != nil {
		return &domain.PersistenceError{Op: "sqlite.remove", Err: err}
	}
	return nil
}

// Ping checks the database connection.
func (b *Backend) Ping(ctx context.Context) error {
	if err := b.db.PingContext(ctx); err != nil {
		return &domain.PersistenceError{Op: "sqlite.ping", Err: err}
	}
	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanItem(s scanner) (domain.BookmarkItem, error) {
	var (
		it           domain.BookmarkItem
		kind         string
		url          sql.NullString
		siteName     sql.NullString
		description  sql.NullString
		thumbnail    sql.NullString
		customImage  sql.NullString
		noteBody     sql.NullString
		tagsJSON     string
		starred      int
		lastViewed   sql.NullString
		createdAtStr string
		updatedAtStr string
		imageSource  string
	)

	err := s.Scan(
		&it.ID, &it.OwnerID, &kind, &url, &it.Title, &siteName,
		&description, &thumbnail, &customImage, &noteBody, &tagsJSON,
		&starred, &it.ViewCount, &lastViewed, &createdAtStr,
		&updatedAtStr, &imageSource,
	)
	if err != nil {
		return domain.BookmarkItem{}, err
	}

	it.Kind = domain.Kind(kind)
	it.URL = url.String
	it.SiteName = siteName.String
	it.Description = description.String
	it.ThumbnailURL = thumbnail.String
	it.CustomImageURL = customImage.String
	it.NoteBody = noteBody.String
	it.IsStarred = starred == 1
	it.ImageSource = domain.ImageSource(imageSource)

	if err := json.Unmarshal([]byte(tagsJSON), &it.Tags); err != nil {
		it.Tags = []string{}
	}

	it.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAtStr)
	it.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAtStr)

	if lastViewed.Valid {
		if t, err := time.Parse(time.RFC3339Nano, lastViewed.String); err == nil {
			it.LastViewedAt = &t
		}
	}

	return it, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
