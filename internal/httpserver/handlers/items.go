package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/bookshelf/internal/domain"
	"github.com/MrSnakeDoc/bookshelf/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookshelf/internal/identity"
	"github.com/MrSnakeDoc/bookshelf/internal/logger"
	"github.com/MrSnakeDoc/bookshelf/internal/store"
)

// collection resolves the caller's collection from the owner that the
// auth middleware put in the context.
func collection(d deps.Deps, r *http.Request) (*store.Collection, bool) {
	owner, ok := identity.FromContext{}.CurrentOwner(r.Context())
	if !ok {
		return nil, false
	}
	return d.Sessions.For(r.Context(), owner), true
}

type listResponse struct {
	Items []domain.BookmarkItem `json:"items"`
	Total int                   `json:"total"`
}

// ListItems serves the filtered, sorted view of the collection.
// Filtering is driven entirely by query parameters; absent parameters
// keep their defaults (all kinds, any-tag matching, createdAt desc).
func ListItems(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		col, ok := collection(d, r)
		if !ok {
			writeError(w, d.Logger, store.ErrNoSession)
			return
		}

		all := col.Items()
		spec := filterSpecFromQuery(r)
		filtered := domain.ApplyFilter(all, spec)

		writeJSON(w, http.StatusOK, listResponse{
			Items: filtered,
			Total: len(filtered),
		})
	}
}

func filterSpecFromQuery(r *http.Request) domain.FilterSpec {
	q := r.URL.Query()
	spec := domain.DefaultFilterSpec()

	spec.SearchText = q.Get("q")
	if raw := q.Get("tags"); raw != "" {
		spec.SelectedTags = strings.Split(raw, ",")
	}
	if mode := q.Get("tagMode"); mode == string(domain.TagModeAll) {
		spec.TagMatchMode = domain.TagModeAll
	}
	if starred, err := strconv.ParseBool(q.Get("starred")); err == nil {
		spec.StarredOnly = starred
	}
	switch kind := domain.Kind(q.Get("kind")); kind {
	case domain.KindLink, domain.KindNote:
		spec.KindFilter = kind
	}
	switch key := domain.SortKey(q.Get("sort")); key {
	case domain.SortTitle, domain.SortCreatedAt, domain.SortUpdatedAt,
		domain.SortViewCount, domain.SortLastViewedAt:
		spec.SortKey = key
	}
	if dir := q.Get("dir"); dir == string(domain.SortAsc) {
		spec.SortDir = domain.SortAsc
	}

	return spec
}

type createRequest struct {
	Kind           string   `json:"kind"`
	URL            string   `json:"url"`
	Title          string   `json:"title"`
	SiteName       string   `json:"siteName"`
	Description    string   `json:"description"`
	ThumbnailURL   string   `json:"thumbnailUrl"`
	CustomImageURL string   `json:"customImageUrl"`
	NoteBody       string   `json:"noteBody"`
	Tags           []string `json:"tags"`
	TagInput       string   `json:"tagInput"`
	Starred        bool     `json:"starred"`
	ImageSource    string   `json:"imageSource"`
}

type createResponse struct {
	Item         domain.BookmarkItem `json:"item"`
	DuplicateURL bool                `json:"duplicateUrl"`
}

// CreateItem persists a new item.
// A link whose URL already exists in the collection is still created;
// the response flags the duplicate so clients can warn.
func CreateItem(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		col, ok := collection(d, r)
		if !ok {
			writeError(w, d.Logger, store.ErrNoSession)
			return
		}

		var req createRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, d.Logger, &domain.ValidationError{Field: "body", Reason: "malformed json"})
			return
		}

		tags := req.Tags
		if len(tags) == 0 && req.TagInput != "" {
			tags = domain.ParseTagInput(req.TagInput)
		}

		duplicate := req.URL != "" && col.HasURL(req.URL)

		item, err := col.Create(r.Context(), domain.Draft{
			Kind:           domain.Kind(req.Kind),
			URL:            req.URL,
			Title:          req.Title,
			SiteName:       req.SiteName,
			Description:    req.Description,
			ThumbnailURL:   req.ThumbnailURL,
			CustomImageURL: req.CustomImageURL,
			NoteBody:       req.NoteBody,
			Tags:           tags,
			IsStarred:      req.Starred,
			ImageSource:    domain.ImageSource(req.ImageSource),
		})
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}

		d.Logger.Info("item created",
			logger.String("id", item.ID),
			logger.String("kind", string(item.Kind)))

		writeJSON(w, http.StatusCreated, createResponse{
			Item:         item,
			DuplicateURL: duplicate,
		})
	}
}

type updateRequest struct {
	URL            *string   `json:"url"`
	Title          *string   `json:"title"`
	SiteName       *string   `json:"siteName"`
	Description    *string   `json:"description"`
	ThumbnailURL   *string   `json:"thumbnailUrl"`
	CustomImageURL *string   `json:"customImageUrl"`
	NoteBody       *string   `json:"noteBody"`
	Tags           *[]string `json:"tags"`
	Starred        *bool     `json:"starred"`
	ImageSource    *string   `json:"imageSource"`
}

// UpdateItem applies a partial update to one item and returns the
// refreshed copy. View counters are owned by the visit endpoint and
// cannot be patched here.
func UpdateItem(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		col, ok := collection(d, r)
		if !ok {
			writeError(w, d.Logger, store.ErrNoSession)
			return
		}
		id := chi.URLParam(r, "id")

		var req updateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, d.Logger, &domain.ValidationError{Field: "body", Reason: "malformed json"})
			return
		}

		patch := domain.ItemPatch{
			URL:            req.URL,
			Title:          req.Title,
			SiteName:       req.SiteName,
			Description:    req.Description,
			ThumbnailURL:   req.ThumbnailURL,
			CustomImageURL: req.CustomImageURL,
			NoteBody:       req.NoteBody,
			Tags:           req.Tags,
			IsStarred:      req.Starred,
		}
		if req.ImageSource != nil {
			source := domain.ImageSource(*req.ImageSource)
			patch.ImageSource = &source
		}

		if err := col.Update(r.Context(), id, patch); err != nil {
			writeError(w, d.Logger, err)
			return
		}

		item, _ := col.ItemByID(id)
		writeJSON(w, http.StatusOK, item)
	}
}

// DeleteItem removes one item. Deleting an id that is already gone
// still answers 204.
func DeleteItem(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		col, ok := collection(d, r)
		if !ok {
			writeError(w, d.Logger, store.ErrNoSession)
			return
		}
		id := chi.URLParam(r, "id")

		if err := col.Delete(r.Context(), id); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// VisitItem records one visit on a link item and returns the updated
// copy.
func VisitItem(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		col, ok := collection(d, r)
		if !ok {
			writeError(w, d.Logger, store.ErrNoSession)
			return
		}
		id := chi.URLParam(r, "id")

		if err := col.IncrementView(r.Context(), id); err != nil {
			writeError(w, d.Logger, err)
			return
		}

		item, _ := col.ItemByID(id)
		writeJSON(w, http.StatusOK, item)
	}
}

// StarItem flips the starred flag and returns the updated copy.
func StarItem(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		col, ok := collection(d, r)
		if !ok {
			writeError(w, d.Logger, store.ErrNoSession)
			return
		}
		id := chi.URLParam(r, "id")

		if err := col.ToggleStar(r.Context(), id); err != nil {
			writeError(w, d.Logger, err)
			return
		}

		item, _ := col.ItemByID(id)
		writeJSON(w, http.StatusOK, item)
	}
}
