package seedfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/MrSnakeDoc/bookshelf/internal/backend/fileb"
	"github.com/MrSnakeDoc/bookshelf/internal/domain"
	"github.com/MrSnakeDoc/bookshelf/internal/logger"
)

const sampleYAML = `- title: Go
  url: https://go.dev
  siteName: The Go Programming Language
  tags: [tech, code]
  starred: true
- title: Shopping list
  note: milk, eggs
  tags: [errands]
- title: broken entry
`

func writeSeed(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoaderParsesEntries(t *testing.T) {
	f, err := NewLoader(writeSeed(t, sampleYAML)).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	want := File{
		{Title: "Go", URL: "https://go.dev", SiteName: "The Go Programming Language", Tags: []string{"tech", "code"}, Starred: true},
		{Title: "Shopping list", Note: "milk, eggs", Tags: []string{"errands"}},
		{Title: "broken entry"},
	}
	if diff := cmp.Diff(want, f); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
}

func TestLoaderMissingFile(t *testing.T) {
	if _, err := NewLoader(filepath.Join(t.TempDir(), "nope.yaml")).Load(); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoaderBadYAML(t *testing.T) {
	if _, err := NewLoader(writeSeed(t, "{not yaml: [")).Load(); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestMapItems(t *testing.T) {
	f, err := NewLoader(writeSeed(t, sampleYAML)).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	items, skipped := MapItems(f, "alice", now)

	if skipped != 1 {
		t.Errorf("skipped = %d, want 1", skipped)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}

	link := items[0]
	if link.Kind != domain.KindLink || link.URL != "https://go.dev" {
		t.Errorf("unexpected link item: %+v", link)
	}
	if !link.IsStarred {
		t.Error("starred flag not carried over")
	}
	if diff := cmp.Diff([]string{"tech", "code"}, link.Tags); diff != "" {
		t.Errorf("tags mismatch (-want +got):\n%s", diff)
	}
	if link.OwnerID != "alice" || !link.CreatedAt.Equal(now) {
		t.Errorf("owner/timestamp not set: %+v", link)
	}

	note := items[1]
	if note.Kind != domain.KindNote || note.NoteBody != "milk, eggs" {
		t.Errorf("unexpected note item: %+v", note)
	}
}

func TestImportIsIdempotent(t *testing.T) {
	ctx := context.Background()
	b, err := fileb.New(t.TempDir())
	if err != nil {
		t.Fatalf("fileb.New: %v", err)
	}
	path := writeSeed(t, sampleYAML)

	added, skipped, err := Import(ctx, path, b, "alice", logger.Nop())
	if err != nil {
		t.Fatalf("first import: %v", err)
	}
	if added != 2 || skipped != 1 {
		t.Errorf("first import: added=%d skipped=%d, want 2/1", added, skipped)
	}

	// Re-running adds nothing; the content-hashed IDs already exist
	added, skipped, err = Import(ctx, path, b, "alice", logger.Nop())
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	if added != 0 || skipped != 3 {
		t.Errorf("second import: added=%d skipped=%d, want 0/3", added, skipped)
	}

	items, err := b.FetchAll(ctx, "alice")
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("backend holds %d items, want 2", len(items))
	}
}

func TestImportMissingFile(t *testing.T) {
	b, err := fileb.New(t.TempDir())
	if err != nil {
		t.Fatalf("fileb.New: %v", err)
	}
	if _, _, err := Import(context.Background(), filepath.Join(t.TempDir(), "nope.yaml"), b, "alice", logger.Nop()); err == nil {
		t.Fatal("expected error for missing seed file")
	}
}

func TestMapItemsStableIDs(t *testing.T) {
	f := File{{Title: "Go", URL: "https://go.dev"}}

	a, _ := MapItems(f, "alice", time.Now())
	b, _ := MapItems(f, "alice", time.Now().Add(time.Hour))

	if a[0].ID != b[0].ID {
		t.Errorf("IDs differ across runs: %q vs %q", a[0].ID, b[0].ID)
	}
	if a[0].ID[:5] != "seed-" {
		t.Errorf("ID %q missing seed prefix", a[0].ID)
	}
}
