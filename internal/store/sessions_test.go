package store

import (
	"context"
	"testing"

	"github.com/MrSnakeDoc/bookshelf/internal/domain"
	"github.com/MrSnakeDoc/bookshelf/internal/logger"
)

func TestSessionsReturnsSameCollection(t *testing.T) {
	fb := newFakeBackend()
	s := NewSessions(fb, logger.Nop())
	ctx := context.Background()

	a1 := s.For(ctx, "alice")
	a2 := s.For(ctx, "alice")
	if a1 != a2 {
		t.Error("same owner got two different collections")
	}

	b := s.For(ctx, "bob")
	if b == a1 {
		t.Error("different owners share a collection")
	}
}

func TestSessionsLoadsOnFirstAccess(t *testing.T) {
	fb := newFakeBackend()
	fb.items["seed"] = domain.BookmarkItem{ID: "seed", OwnerID: "alice", Kind: domain.KindLink, URL: "https://go.dev"}

	s := NewSessions(fb, logger.Nop())
	col := s.For(context.Background(), "alice")

	if got := len(col.Items()); got != 1 {
		t.Errorf("snapshot has %d items after first access, want 1", got)
	}
}
