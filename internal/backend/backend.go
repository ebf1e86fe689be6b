// Package backend defines the persistence boundary consumed by the
// collection store. Adapters (redis, sqlite, json file) live in
// subpackages; the store never sees anything but this interface.
package backend

import (
	"context"

	"github.com/MrSnakeDoc/bookshelf/internal/domain"
)

// Backend is the persistence contract for one bookmark collection.
//
// Error mapping rules for implementations:
//   - any transport/auth failure wraps into *domain.PersistenceError
//   - Patch on an absent id returns *domain.NotFoundError
//   - Patch validates the update against the stored item's kind and
//     returns *domain.ValidationError on an invariant violation, so
//     callers with a stale view cannot persist an invalid item
//   - Remove on an absent id succeeds (already gone is not a failure)
type Backend interface {
	// FetchAll returns the full collection for an owner.
	// A missing collection is an empty slice, not an error.
	FetchAll(ctx context.Context, ownerID string) ([]domain.BookmarkItem, error)

	// Insert persists a fully-formed new item.
	Insert(ctx context.Context, item domain.BookmarkItem) error

	// Patch applies a partial update to an existing item.
	Patch(ctx context.Context, ownerID, id string, p domain.ItemPatch) error

	// Remove deletes an item. Idempotent.
	Remove(ctx context.Context, ownerID, id string) error

	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error
}
