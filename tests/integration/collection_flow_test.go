package integration

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/MrSnakeDoc/bookshelf/internal/backend/sqliteb"
	"github.com/MrSnakeDoc/bookshelf/internal/domain"
	"github.com/MrSnakeDoc/bookshelf/internal/identity"
	"github.com/MrSnakeDoc/bookshelf/internal/logger"
	"github.com/MrSnakeDoc/bookshelf/internal/store"
)

// TestCollectionLifecycle drives the full stack: sqlite persistence,
// the collection store's mutate-then-reload cycle, and the filter and
// tag engines reading the snapshot.
func TestCollectionLifecycle(t *testing.T) {
	ctx := context.Background()

	dbPath := filepath.Join(t.TempDir(), "bookshelf.db")
	b, err := sqliteb.New(dbPath)
	if err != nil {
		t.Fatalf("sqliteb.New: %v", err)
	}
	defer func() { _ = b.Close() }()

	col := store.New(store.Config{
		Backend:  b,
		Identity: identity.Static{Owner: "alice"},
		Logger:   logger.Nop(),
	})
	if err := col.Load(ctx); err != nil {
		t.Fatalf("initial load: %v", err)
	}

	// Create a mix of links and notes
	goLink, err := col.Create(ctx, domain.Draft{
		Kind:  domain.KindLink,
		URL:   "https://go.dev",
		Title: "Go",
		Tags:  []string{"Tech", "lang"},
	})
	if err != nil {
		t.Fatalf("create go link: %v", err)
	}

	rustLink, err := col.Create(ctx, domain.Draft{
		Kind:  domain.KindLink,
		URL:   "https://rust-lang.org",
		Title: "Rust",
		Tags:  []string{"tech", "systems"},
	})
	if err != nil {
		t.Fatalf("create rust link: %v", err)
	}

	note, err := col.Create(ctx, domain.Draft{
		Kind:     domain.KindNote,
		Title:    "Reading list",
		NoteBody: "catch up on rust async",
		Tags:     []string{"reading"},
	})
	if err != nil {
		t.Fatalf("create note: %v", err)
	}

	if got := len(col.Items()); got != 3 {
		t.Fatalf("snapshot has %d items, want 3", got)
	}

	// Visits only touch links
	for i := 0; i < 2; i++ {
		if err := col.IncrementView(ctx, goLink.ID); err != nil {
			t.Fatalf("visit %d: %v", i+1, err)
		}
	}
	if err := col.IncrementView(ctx, note.ID); !domain.IsValidation(err) {
		t.Errorf("visiting a note: err = %v, want validation error", err)
	}

	if err := col.ToggleStar(ctx, rustLink.ID); err != nil {
		t.Fatalf("star: %v", err)
	}

	// Filter engine over the reloaded snapshot
	items := col.Items()

	spec := domain.DefaultFilterSpec()
	spec.SearchText = "rust"
	matched := domain.ApplyFilter(items, spec)
	if len(matched) != 2 {
		t.Errorf("search 'rust' matched %d items, want 2 (link + note body)", len(matched))
	}

	spec = domain.DefaultFilterSpec()
	spec.StarredOnly = true
	if matched = domain.ApplyFilter(items, spec); len(matched) != 1 || matched[0].ID != rustLink.ID {
		t.Errorf("starred filter = %+v, want only the rust link", ids(matched))
	}

	spec = domain.DefaultFilterSpec()
	spec.SortKey = domain.SortViewCount
	spec.SortDir = domain.SortDesc
	if matched = domain.ApplyFilter(items, spec); matched[0].ID != goLink.ID {
		t.Errorf("viewCount sort: top = %s, want the visited go link", matched[0].ID)
	}

	// lastViewedAt sorts never-viewed items last in both directions
	spec = domain.DefaultFilterSpec()
	spec.SortKey = domain.SortLastViewedAt
	spec.SortDir = domain.SortAsc
	matched = domain.ApplyFilter(items, spec)
	if matched[len(matched)-1].LastViewedAt != nil {
		t.Error("never-viewed items should sort last")
	}

	// Tag histogram
	counts := domain.AggregateTags(items)
	if counts[0].Tag != "tech" || counts[0].Count != 2 {
		t.Errorf("top tag = %+v, want tech x2", counts[0])
	}

	// A second session over the same database sees the persisted state
	col2 := store.New(store.Config{
		Backend:  b,
		Identity: identity.Static{Owner: "alice"},
		Logger:   logger.Nop(),
	})
	if err := col2.Load(ctx); err != nil {
		t.Fatalf("second session load: %v", err)
	}

	got, found := col2.ItemByID(goLink.ID)
	if !found {
		t.Fatal("go link missing in second session")
	}
	if got.ViewCount != 2 {
		t.Errorf("persisted viewCount = %d, want 2", got.ViewCount)
	}
	if got.LastViewedAt == nil {
		t.Error("persisted lastViewedAt is nil")
	}

	// Delete in session one, reload in session two
	if err := col.Delete(ctx, note.ID); err != nil {
		t.Fatalf("delete note: %v", err)
	}
	if err := col2.Load(ctx); err != nil {
		t.Fatalf("reload after delete: %v", err)
	}
	if _, found := col2.ItemByID(note.ID); found {
		t.Error("deleted note still visible after reload")
	}

	// Other owners never see this collection
	other := store.New(store.Config{
		Backend:  b,
		Identity: identity.Static{Owner: "bob"},
		Logger:   logger.Nop(),
	})
	if err := other.Load(ctx); err != nil {
		t.Fatalf("bob load: %v", err)
	}
	if got := len(other.Items()); got != 0 {
		t.Errorf("bob sees %d of alice's items", got)
	}
}

func ids(items []domain.BookmarkItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}
