// Package store owns the authoritative in-memory collection for the
// current session and mediates every read and write to persistence.
//
// Consistency model: every mutation is followed by a full reload from
// the backend. The snapshot is always either the last successfully
// loaded state or in the middle of being replaced wholesale - never a
// speculative local merge. Two mutations issued back-to-back race
// their reloads and the last reload to complete wins; acceptable for
// a single-user interactive session, not a transactional guarantee.
package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/bookshelf/internal/backend"
	"github.com/MrSnakeDoc/bookshelf/internal/domain"
	"github.com/MrSnakeDoc/bookshelf/internal/identity"
	"github.com/MrSnakeDoc/bookshelf/internal/logger"
)

// ErrNoSession is returned by mutations when no owner session is
// active. Reads simply see an empty collection.
var ErrNoSession = errors.New("no active session")

// Config carries the collection store's injected collaborators.
type Config struct {
	Backend  backend.Backend
	Identity identity.Provider
	Logger   logger.Logger

	// Now and NewID default to time.Now and uuid-based IDs.
	// Overridable for tests.
	Now   func() time.Time
	NewID func() string
}

// Collection is the single writer of the in-memory item snapshot.
// The filter engine and tag aggregation only ever read copies of it.
type Collection struct {
	backend backend.Backend
	ident   identity.Provider
	log     logger.Logger
	now     func() time.Time
	newID   func() string

	mu         sync.RWMutex
	items      []domain.BookmarkItem
	loading    bool
	lastErr    error
	lastReload time.Time
}

// New builds a Collection. Backend, Identity and Logger are required.
func New(cfg Config) *Collection {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.NewID == nil {
		cfg.NewID = func() string { return uuid.New().String() }
	}
	return &Collection{
		backend: cfg.Backend,
		ident:   cfg.Identity,
		log:     cfg.Logger,
		now:     cfg.Now,
		newID:   cfg.NewID,
	}
}

// Load replaces the snapshot with a fresh read from persistence.
// On failure the previous snapshot stays intact and the error state
// is set; callers keep seeing the last consistent view.
func (c *Collection) Load(ctx context.Context) error {
	owner, ok := c.ident.CurrentOwner(ctx)
	if !ok {
		c.mu.Lock()
		c.items = nil
		c.loading = false
		c.lastErr = nil
		c.mu.Unlock()
		return nil
	}

	c.mu.Lock()
	c.loading = true
	c.mu.Unlock()

	items, err := c.backend.FetchAll(ctx, owner)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false
	if err != nil {
		c.lastErr = err
		c.log.Warn("collection reload failed, keeping previous snapshot",
			logger.String("owner", owner),
			logger.Error(err))
		return err
	}

	c.items = items
	c.lastErr = nil
	c.lastReload = c.now()
	c.log.Debug("collection reloaded",
		logger.String("owner", owner),
		logger.Int("items", len(items)))
	return nil
}

// Create validates the draft, persists it, then reloads.
// The created item (with generated ID and timestamps) is returned so
// callers can reference it without digging through the snapshot.
func (c *Collection) Create(ctx context.Context, draft domain.Draft) (domain.BookmarkItem, error) {
	owner, ok := c.ident.CurrentOwner(ctx)
	if !ok {
		return domain.BookmarkItem{}, ErrNoSession
	}

	if err := draft.Validate(); err != nil {
		return domain.BookmarkItem{}, err
	}

	item := domain.NewItem(draft, c.newID(), owner, c.now())
	if err := c.backend.Insert(ctx, item); err != nil {
		c.setErr(err)
		return domain.BookmarkItem{}, err
	}

	return item, c.Load(ctx)
}

// Update merges the patch into the persisted item, stamps updatedAt,
// then reloads. An absent id is reported by the backend as
// NotFoundError - the local snapshot is deliberately not consulted,
// so a stale cache cannot mask a concurrent delete.
//
// Validation happens twice: against the snapshot when the item is
// cached (fast fail, no round trip), and authoritatively inside
// backend.Patch against the stored kind, so a cold or stale cache
// cannot smuggle an invalid patch into persistence.
func (c *Collection) Update(ctx context.Context, id string, patch domain.ItemPatch) error {
	owner, ok := c.ident.CurrentOwner(ctx)
	if !ok {
		return ErrNoSession
	}

	if it, found := c.ItemByID(id); found {
		if err := patch.Validate(it.Kind); err != nil {
			return err
		}
	}

	now := c.now()
	patch.UpdatedAt = &now

	if err := c.backend.Patch(ctx, owner, id, patch); err != nil {
		c.setErr(err)
		return err
	}

	return c.Load(ctx)
}

// Delete removes the item and reloads. Deleting an id that is already
// gone succeeds: the desired end state is reached either way.
func (c *Collection) Delete(ctx context.Context, id string) error {
	owner, ok := c.ident.CurrentOwner(ctx)
	if !ok {
		return ErrNoSession
	}

	if err := c.backend.Remove(ctx, owner, id); err != nil {
		c.setErr(err)
		return err
	}

	return c.Load(ctx)
}

// IncrementView records a visit on a link item: viewCount+1 and
// lastViewedAt=now, both computed from the in-memory snapshot.
//
// Known hazard: two concurrent sessions can read the same counter and
// lose one increment. The remote counter is not atomic on purpose -
// see the consistency notes in DESIGN.md.
func (c *Collection) IncrementView(ctx context.Context, id string) error {
	it, found := c.ItemByID(id)
	if !found {
		return &domain.NotFoundError{ID: id}
	}
	if it.Kind != domain.KindLink {
		return &domain.ValidationError{Field: "kind", Reason: "visits only apply to link items"}
	}

	count := it.ViewCount + 1
	viewed := c.now()
	return c.Update(ctx, id, domain.ItemPatch{
		ViewCount:    &count,
		LastViewedAt: &viewed,
	})
}

// ToggleStar flips the starred flag. Same in-memory-read caveat as
// IncrementView.
func (c *Collection) ToggleStar(ctx context.Context, id string) error {
	it, found := c.ItemByID(id)
	if !found {
		return &domain.NotFoundError{ID: id}
	}

	starred := !it.IsStarred
	return c.Update(ctx, id, domain.ItemPatch{IsStarred: &starred})
}

// Items returns a copy of the current snapshot.
func (c *Collection) Items() []domain.BookmarkItem {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]domain.BookmarkItem, len(c.items))
	copy(out, c.items)
	return out
}

// ItemByID looks up one item in the snapshot.
func (c *Collection) ItemByID(id string) (domain.BookmarkItem, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, it := range c.items {
		if it.ID == id {
			return it, true
		}
	}
	return domain.BookmarkItem{}, false
}

// HasURL reports whether any link item in the snapshot already
// carries the given URL. Used to warn about duplicates at creation;
// duplicates are allowed, never rejected.
func (c *Collection) HasURL(url string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, it := range c.items {
		if it.Kind == domain.KindLink && it.URL == url {
			return true
		}
	}
	return false
}

// Loading reports whether a reload is in flight.
func (c *Collection) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loading
}

// Err returns the error state of the last failed operation, or nil
// after a successful reload.
func (c *Collection) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr
}

// LastReload returns when the snapshot was last replaced.
func (c *Collection) LastReload() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastReload
}

func (c *Collection) setErr(err error) {
	c.mu.Lock()
	c.lastErr = err
	c.mu.Unlock()
}
