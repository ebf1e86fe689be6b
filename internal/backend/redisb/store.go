// Package redisb persists collections in Redis: one JSON value per
// item plus a per-owner set of item IDs.
package redisb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/bookshelf/internal/domain"
)

// Backend implements the persistence contract on a Redis client.
type Backend struct {
	client *redis.Client
}

// New wraps an already-connected client.
func New(client *redis.Client) *Backend {
	return &Backend{client: client}
}

// FetchAll reads the owner's ID set and every item document behind it.
// Dangling IDs (document expired or deleted out-of-band) are pruned as
// they are encountered.
func (b *Backend) FetchAll(ctx context.Context, ownerID string) ([]domain.BookmarkItem, error) {
	ids, err := b.client.SMembers(ctx, allItemsKey(ownerID)).Result()
	if err != nil {
		return nil, &domain.PersistenceError{Op: "redis.fetchAll", Err: err}
	}

	items := make([]domain.BookmarkItem, 0, len(ids))
	for _, id := range ids {
		data, err := b.client.Get(ctx, itemKey(ownerID, id)).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				_ = b.client.SRem(ctx, allItemsKey(ownerID), id).Err()
				continue
			}
			return nil, &domain.PersistenceError{Op: "redis.fetchAll", Err: err}
		}

		var it domain.BookmarkItem
		if err := json.Unmarshal(data, &it); err != nil {
			return nil, &domain.PersistenceError{
				Op:  "redis.fetchAll",
				Err: fmt.Errorf("corrupt item %s: %w", id, err),
			}
		}
		items = append(items, it)
	}

	return items, nil
}

// Insert writes the item document and registers its ID.
func (b *Backend) Insert(ctx context.Context, item domain.BookmarkItem) error {
	data, err := json.Marshal(item)
	if err != nil {
		return &domain.PersistenceError{Op: "redis.insert", Err: err}
	}

	pipe := b.client.TxPipeline()
	pipe.Set(ctx, itemKey(item.OwnerID, item.ID), data, 0)
	pipe.SAdd(ctx, allItemsKey(item.OwnerID), item.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return &domain.PersistenceError{Op: "redis.insert", Err: err}
	}
	return nil
}

// Patch reads the document, applies the partial update and writes it
// back. Not atomic across sessions - the store's consistency model
// accepts last-write-wins here.
func (b *Backend) Patch(ctx context.Context, ownerID, id string, p domain.ItemPatch) error {
	key := itemKey(ownerID, id)

	data, err := b.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return &domain.NotFoundError{ID: id}
		}
		return &domain.PersistenceError{Op: "redis.patch", Err: err}
	}

	var it domain.BookmarkItem
	if err := json.Unmarshal(data, &it); err != nil {
		return &domain.PersistenceError{Op: "redis.patch", Err: err}
	}

	if err := p.Validate(it.Kind); err != nil {
		return err
	}

	it.Apply(p)

	out, err := json.Marshal(it)
	if err != nil {
		return &domain.PersistenceError{Op: "redis.patch", Err: err}
	}
	if err := b.client.Set(ctx, key, out, 0).Err(); err != nil {
		return &domain.PersistenceError{Op: "redis.patch", Err: err}
	}
	return nil
}

// Remove deletes the item document and its set entry. Absent ids
// succeed: both DEL and SREM are no-ops on missing keys.
func (b *Backend) Remove(ctx context.Context, ownerID, id string) error {
	pipe := b.client.TxPipeline()
	pipe.Del(ctx, itemKey(ownerID, id))
	pipe.SRem(ctx, allItemsKey(ownerID), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return &domain.PersistenceError{Op: "redis.remove", Err: err}
	}
	return nil
}

// InsertMany writes a batch of items in one pipeline. Used by the
// seed importer.
func (b *Backend) InsertMany(ctx context.Context, items []domain.BookmarkItem) error {
	pipe := b.client.TxPipeline()
	for _, item := range items {
		data, err := json.Marshal(item)
		if err != nil {
			return &domain.PersistenceError{
				Op:  "redis.insertMany",
				Err: fmt.Errorf("marshal item %s: %w", item.ID, err),
			}
		}
		pipe.Set(ctx, itemKey(item.OwnerID, item.ID), data, 0)
		pipe.SAdd(ctx, allItemsKey(item.OwnerID), item.ID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return &domain.PersistenceError{Op: "redis.insertMany", Err: err}
	}
	return nil
}

// Ping checks the Redis connection.
func (b *Backend) Ping(ctx context.Context) error {
	if err := b.client.Ping(ctx).Err(); err != nil {
		return &domain.PersistenceError{Op: "redis.ping", Err: err}
	}
	return nil
}
