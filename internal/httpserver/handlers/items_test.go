package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/bookshelf/internal/backend/fileb"
	"github.com/MrSnakeDoc/bookshelf/internal/domain"
	"github.com/MrSnakeDoc/bookshelf/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookshelf/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/bookshelf/internal/httpserver/mw"
	"github.com/MrSnakeDoc/bookshelf/internal/logger"
	"github.com/MrSnakeDoc/bookshelf/internal/store"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	b, err := fileb.New(t.TempDir())
	if err != nil {
		t.Fatalf("fileb.New: %v", err)
	}

	d := deps.Deps{
		Logger:    logger.Nop(),
		StartTime: time.Now(),
		APITokens: map[string]string{"tok-alice": "alice", "tok-bob": "bob"},
		Sessions:  store.NewSessions(b, logger.Nop()),
		Backend:   b,
	}

	r := chi.NewRouter()
	r.Route("/api/items", func(r chi.Router) {
		r.Use(mw.Auth(d.APITokens, d.DefaultOwner, d.Logger))
		r.Get("/", handlers.ListItems(d))
		r.Post("/", handlers.CreateItem(d))
		r.Patch("/{id}", handlers.UpdateItem(d))
		r.Delete("/{id}", handlers.DeleteItem(d))
		r.Post("/{id}/visit", handlers.VisitItem(d))
		r.Post("/{id}/star", handlers.StarItem(d))
	})
	r.With(mw.Auth(d.APITokens, d.DefaultOwner, d.Logger)).Get("/api/tags", handlers.Tags(d))
	r.With(mw.Auth(d.APITokens, d.DefaultOwner, d.Logger)).Post("/api/reload", handlers.Reload(d))

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func doRequest(t *testing.T, method, url, token string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()

	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

type itemEnvelope struct {
	Item         domain.BookmarkItem `json:"item"`
	DuplicateURL bool                `json:"duplicateUrl"`
}

type listEnvelope struct {
	Items []domain.BookmarkItem `json:"items"`
	Total int                   `json:"total"`
}

func createLink(t *testing.T, srv *httptest.Server, token, url, title string, tags ...string) domain.BookmarkItem {
	t.Helper()
	resp := doRequest(t, http.MethodPost, srv.URL+"/api/items", token, map[string]any{
		"kind":  "link",
		"url":   url,
		"title": title,
		"tags":  tags,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create returned %d, want 201", resp.StatusCode)
	}
	return decode[itemEnvelope](t, resp).Item
}

func TestCreateAndList(t *testing.T) {
	srv := newTestServer(t)

	created := createLink(t, srv, "tok-alice", "https://go.dev", "Go", "tech")
	if created.ID == "" {
		t.Fatal("created item has no id")
	}
	if created.Title != "Go" || created.Kind != domain.KindLink {
		t.Errorf("unexpected created item: %+v", created)
	}

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/items", "tok-alice", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list returned %d", resp.StatusCode)
	}
	list := decode[listEnvelope](t, resp)
	if list.Total != 1 || len(list.Items) != 1 {
		t.Fatalf("list = %+v, want one item", list)
	}
	if list.Items[0].ID != created.ID {
		t.Errorf("listed id = %s, want %s", list.Items[0].ID, created.ID)
	}
}

func TestCreateInvalidDraft(t *testing.T) {
	srv := newTestServer(t)

	resp := doRequest(t, http.MethodPost, srv.URL+"/api/items", "tok-alice", map[string]any{
		"kind":  "link",
		"title": "no url",
	})
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestCreateFlagsDuplicateURL(t *testing.T) {
	srv := newTestServer(t)

	createLink(t, srv, "tok-alice", "https://go.dev", "Go")

	resp := doRequest(t, http.MethodPost, srv.URL+"/api/items", "tok-alice", map[string]any{
		"kind": "link",
		"url":  "https://go.dev",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("duplicate create returned %d, want 201", resp.StatusCode)
	}
	env := decode[itemEnvelope](t, resp)
	if !env.DuplicateURL {
		t.Error("duplicateUrl = false, want true")
	}
}

func TestListFiltering(t *testing.T) {
	srv := newTestServer(t)

	createLink(t, srv, "tok-alice", "https://go.dev", "Go", "tech")
	createLink(t, srv, "tok-alice", "https://rust-lang.org", "Rust", "tech", "systems")
	createLink(t, srv, "tok-alice", "https://news.example.com", "News")

	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"no filter", "", 3},
		{"search", "?q=rust", 1},
		{"tag any", "?tags=tech", 2},
		{"tag all", "?tags=tech,systems&tagMode=all", 1},
		{"kind link", "?kind=link", 3},
		{"kind note", "?kind=note", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doRequest(t, http.MethodGet, srv.URL+"/api/items"+tt.query, "tok-alice", nil)
			list := decode[listEnvelope](t, resp)
			if list.Total != tt.want {
				t.Errorf("total = %d, want %d", list.Total, tt.want)
			}
		})
	}
}

func TestListSortByTitle(t *testing.T) {
	srv := newTestServer(t)

	createLink(t, srv, "tok-alice", "https://b.example.com", "banana")
	createLink(t, srv, "tok-alice", "https://a.example.com", "Apple")

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/items?sort=title&dir=asc", "tok-alice", nil)
	list := decode[listEnvelope](t, resp)
	if len(list.Items) != 2 {
		t.Fatalf("got %d items", len(list.Items))
	}
	if list.Items[0].Title != "Apple" || list.Items[1].Title != "banana" {
		t.Errorf("order = [%s, %s], want [Apple, banana]", list.Items[0].Title, list.Items[1].Title)
	}
}

func TestUpdateItem(t *testing.T) {
	srv := newTestServer(t)
	created := createLink(t, srv, "tok-alice", "https://go.dev", "Go")

	resp := doRequest(t, http.MethodPatch, srv.URL+"/api/items/"+created.ID, "tok-alice", map[string]any{
		"title": "The Go Site",
		"tags":  []string{"Tech", "tech", "lang"},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("patch returned %d", resp.StatusCode)
	}
	updated := decode[domain.BookmarkItem](t, resp)
	if updated.Title != "The Go Site" {
		t.Errorf("title = %q", updated.Title)
	}
	if len(updated.Tags) != 2 || updated.Tags[0] != "tech" || updated.Tags[1] != "lang" {
		t.Errorf("tags = %v, want normalized [tech lang]", updated.Tags)
	}
	if updated.UpdatedAt.Before(created.UpdatedAt) {
		t.Error("updatedAt went backwards")
	}
}

func TestUpdateAbsentItem(t *testing.T) {
	srv := newTestServer(t)

	resp := doRequest(t, http.MethodPatch, srv.URL+"/api/items/nope", "tok-alice", map[string]any{
		"title": "x",
	})
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	srv := newTestServer(t)
	created := createLink(t, srv, "tok-alice", "https://go.dev", "Go")

	for i := 0; i < 2; i++ {
		resp := doRequest(t, http.MethodDelete, srv.URL+"/api/items/"+created.ID, "tok-alice", nil)
		_ = resp.Body.Close()
		if resp.StatusCode != http.StatusNoContent {
			t.Fatalf("delete #%d returned %d, want 204", i+1, resp.StatusCode)
		}
	}

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/items", "tok-alice", nil)
	if list := decode[listEnvelope](t, resp); list.Total != 0 {
		t.Errorf("total = %d after delete, want 0", list.Total)
	}
}

func TestVisitIncrementsCounter(t *testing.T) {
	srv := newTestServer(t)
	created := createLink(t, srv, "tok-alice", "https://go.dev", "Go")

	var last domain.BookmarkItem
	for i := 0; i < 3; i++ {
		resp := doRequest(t, http.MethodPost, fmt.Sprintf("%s/api/items/%s/visit", srv.URL, created.ID), "tok-alice", nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("visit returned %d", resp.StatusCode)
		}
		last = decode[domain.BookmarkItem](t, resp)
	}

	if last.ViewCount != 3 {
		t.Errorf("viewCount = %d, want 3", last.ViewCount)
	}
	if last.LastViewedAt == nil {
		t.Error("lastViewedAt still nil after visits")
	}
}

func TestVisitRejectsNotes(t *testing.T) {
	srv := newTestServer(t)

	resp := doRequest(t, http.MethodPost, srv.URL+"/api/items", "tok-alice", map[string]any{
		"kind":     "note",
		"title":    "todo",
		"noteBody": "buy milk",
	})
	note := decode[itemEnvelope](t, resp).Item

	resp = doRequest(t, http.MethodPost, fmt.Sprintf("%s/api/items/%s/visit", srv.URL, note.ID), "tok-alice", nil)
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestStarToggles(t *testing.T) {
	srv := newTestServer(t)
	created := createLink(t, srv, "tok-alice", "https://go.dev", "Go")

	resp := doRequest(t, http.MethodPost, fmt.Sprintf("%s/api/items/%s/star", srv.URL, created.ID), "tok-alice", nil)
	if item := decode[domain.BookmarkItem](t, resp); !item.IsStarred {
		t.Error("first toggle: starred = false, want true")
	}

	resp = doRequest(t, http.MethodPost, fmt.Sprintf("%s/api/items/%s/star", srv.URL, created.ID), "tok-alice", nil)
	if item := decode[domain.BookmarkItem](t, resp); item.IsStarred {
		t.Error("second toggle: starred = true, want false")
	}
}

func TestOwnersAreIsolated(t *testing.T) {
	srv := newTestServer(t)

	createLink(t, srv, "tok-alice", "https://go.dev", "Go")

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/items", "tok-bob", nil)
	if list := decode[listEnvelope](t, resp); list.Total != 0 {
		t.Errorf("bob sees %d of alice's items", list.Total)
	}
}

func TestAuthRejectsUnknownToken(t *testing.T) {
	srv := newTestServer(t)

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/items", "tok-nobody", nil)
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}

func TestReloadEndpoint(t *testing.T) {
	srv := newTestServer(t)

	createLink(t, srv, "tok-alice", "https://go.dev", "Go")
	createLink(t, srv, "tok-alice", "https://rust-lang.org", "Rust")

	resp := doRequest(t, http.MethodPost, srv.URL+"/api/reload", "tok-alice", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reload returned %d", resp.StatusCode)
	}
	body := decode[struct {
		Items      int       `json:"items"`
		ReloadedAt time.Time `json:"reloadedAt"`
	}](t, resp)

	if body.Items != 2 {
		t.Errorf("items = %d, want 2", body.Items)
	}
	if body.ReloadedAt.IsZero() {
		t.Error("reloadedAt is zero, want the reload timestamp")
	}
}

func TestTagsEndpoint(t *testing.T) {
	srv := newTestServer(t)

	createLink(t, srv, "tok-alice", "https://go.dev", "Go", "tech", "lang")
	createLink(t, srv, "tok-alice", "https://rust-lang.org", "Rust", "tech")

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/tags", "tok-alice", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("tags returned %d", resp.StatusCode)
	}
	body := decode[struct {
		Tags []domain.TagCount `json:"tags"`
	}](t, resp)

	if len(body.Tags) != 2 {
		t.Fatalf("got %d tags, want 2", len(body.Tags))
	}
	if body.Tags[0].Tag != "tech" || body.Tags[0].Count != 2 {
		t.Errorf("top tag = %+v, want tech x2", body.Tags[0])
	}
	if body.Tags[1].Tag != "lang" || body.Tags[1].Count != 1 {
		t.Errorf("second tag = %+v, want lang x1", body.Tags[1])
	}
}
