package store

import (
	"context"
	"sync"

	"github.com/MrSnakeDoc/bookshelf/internal/backend"
	"github.com/MrSnakeDoc/bookshelf/internal/identity"
	"github.com/MrSnakeDoc/bookshelf/internal/logger"
)

// Sessions hands out one Collection per owner, created lazily on first
// use. Each collection is pinned to its owner so a request for one
// owner can never observe another owner's snapshot.
type Sessions struct {
	backend backend.Backend
	log     logger.Logger

	mu   sync.Mutex
	cols map[string]*Collection
}

// NewSessions builds an empty session registry over the given backend.
func NewSessions(b backend.Backend, log logger.Logger) *Sessions {
	return &Sessions{
		backend: b,
		log:     log,
		cols:    make(map[string]*Collection),
	}
}

// For returns the collection for owner, loading it from persistence on
// first access. A failed initial load still returns the collection;
// its Err() reports the failure and the next operation retries.
func (s *Sessions) For(ctx context.Context, owner string) *Collection {
	s.mu.Lock()
	col, ok := s.cols[owner]
	if !ok {
		col = New(Config{
			Backend:  s.backend,
			Identity: identity.Static{Owner: owner},
			Logger:   s.log,
		})
		s.cols[owner] = col
	}
	s.mu.Unlock()

	if !ok {
		if err := col.Load(ctx); err != nil {
			s.log.Warn("initial collection load failed",
				logger.String("owner", owner),
				logger.Error(err))
		}
	}
	return col
}
