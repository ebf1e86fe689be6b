package seedfile

import (
	"context"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/bookshelf/internal/backend"
	"github.com/MrSnakeDoc/bookshelf/internal/domain"
	"github.com/MrSnakeDoc/bookshelf/internal/logger"
)

// bulkInserter is implemented by backends that can write a batch in
// one round trip (redis pipelines). Others get per-item inserts.
type bulkInserter interface {
	InsertMany(ctx context.Context, items []domain.BookmarkItem) error
}

// Import loads the seed file and inserts every entry that is not
// already present in the owner's collection. Returns how many items
// were added and how many entries were skipped (invalid or existing).
func Import(ctx context.Context, path string, b backend.Backend, ownerID string, log logger.Logger) (added, skipped int, err error) {
	f, err := NewLoader(path).Load()
	if err != nil {
		return 0, 0, err
	}

	items, invalid := MapItems(f, ownerID, time.Now())
	skipped += invalid

	existing, err := b.FetchAll(ctx, ownerID)
	if err != nil {
		return 0, skipped, fmt.Errorf("seed import: %w", err)
	}
	present := make(map[string]bool, len(existing))
	for _, it := range existing {
		present[it.ID] = true
	}

	missing := items[:0]
	for _, it := range items {
		if present[it.ID] {
			skipped++
			continue
		}
		missing = append(missing, it)
	}

	if bulk, ok := b.(bulkInserter); ok {
		if err := bulk.InsertMany(ctx, missing); err != nil {
			return 0, skipped, fmt.Errorf("seed import: %w", err)
		}
		added = len(missing)
	} else {
		for _, it := range missing {
			if err := b.Insert(ctx, it); err != nil {
				return added, skipped, fmt.Errorf("seed import: %w", err)
			}
			added++
		}
	}

	log.Info("seed import finished",
		logger.String("file", path),
		logger.Int("added", added),
		logger.Int("skipped", skipped))

	return added, skipped, nil
}
