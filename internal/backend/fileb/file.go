// Package fileb persists collections as one JSON document per owner.
// Writes go through an atomic rename so a crash mid-write can never
// leave a half-written collection behind.
package fileb

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"

	"github.com/MrSnakeDoc/bookshelf/internal/domain"
)

// Backend stores each owner's collection under dir/<owner>.json.
type Backend struct {
	dir string
}

// New creates the data directory if needed and returns the backend.
func New(dir string) (*Backend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &domain.PersistenceError{Op: "file.init", Err: err}
	}
	return &Backend{dir: dir}, nil
}

func (b *Backend) path(ownerID string) string {
	// Owner IDs come from config/auth, but keep them path-safe anyway.
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, ownerID)
	return filepath.Join(b.dir, safe+".json")
}

func (b *Backend) read(ownerID string) ([]domain.BookmarkItem, error) {
	data, err := os.ReadFile(b.path(ownerID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []domain.BookmarkItem{}, nil
		}
		return nil, &domain.PersistenceError{Op: "file.read", Err: err}
	}

	var items []domain.BookmarkItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, &domain.PersistenceError{Op: "file.decode", Err: err}
	}
	if items == nil {
		items = []domain.BookmarkItem{}
	}
	return items, nil
}

func (b *Backend) write(ownerID string, items []domain.BookmarkItem) error {
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return &domain.PersistenceError{Op: "file.encode", Err: err}
	}
	if err := atomic.WriteFile(b.path(ownerID), bytes.NewReader(data)); err != nil {
		return &domain.PersistenceError{Op: "file.write", Err: err}
	}
	return nil
}

// FetchAll returns the owner's collection; a missing file is empty.
func (b *Backend) FetchAll(_ context.Context, ownerID string) ([]domain.BookmarkItem, error) {
	return b.read(ownerID)
}

// Insert appends the item to the owner's document.
func (b *Backend) Insert(_ context.Context, item domain.BookmarkItem) error {
	items, err := b.read(item.OwnerID)
	if err != nil {
		return err
	}
	for _, existing := range items {
		if existing.ID == item.ID {
			return &domain.PersistenceError{
				Op:  "file.insert",
				Err: fmt.Errorf("duplicate id %s", item.ID),
			}
		}
	}
	return b.write(item.OwnerID, append(items, item))
}

// Patch rewrites the document with the patched item.
func (b *Backend) Patch(_ context.Context, ownerID, id string, p domain.ItemPatch) error {
	items, err := b.read(ownerID)
	if err != nil {
		return err
	}
	for i := range items {
		if items[i].ID == id {
			if err := p.Validate(items[i].Kind); err != nil {
				return err
			}
			items[i].Apply(p)
			return b.write(ownerID, items)
		}
	}
	return &domain.NotFoundError{ID: id}
}

// Remove drops the item if present. Absent ids succeed.
func (b *Backend) Remove(_ context.Context, ownerID, id string) error {
	items, err := b.read(ownerID)
	if err != nil {
		return err
	}
	out := items[:0]
	removed := false
	for _, it := range items {
		if it.ID == id {
			removed = true
			continue
		}
		out = append(out, it)
	}
	if !removed {
		return nil
	}
	return b.write(ownerID, out)
}

// Ping verifies the data directory is still usable.
func (b *Backend) Ping(context.Context) error {
	if _, err := os.Stat(b.dir); err != nil {
		return &domain.PersistenceError{Op: "file.ping", Err: err}
	}
	return nil
}
