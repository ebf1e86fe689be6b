package domain

import (
	"net/url"
	"strings"
	"time"
)

// Kind discriminates the two item flavors.
// A link carries a URL, a note carries free text instead.
type Kind string

const (
	KindLink Kind = "link"
	KindNote Kind = "note"
)

// ImageSource records where an item's display image came from.
// It drives display precedence only and is never filtered on.
type ImageSource string

const (
	ImageExternal ImageSource = "external-metadata"
	ImageUser     ImageSource = "user-provided"
	ImageFallback ImageSource = "fallback"
)

// DefaultTitle is used when a draft arrives without one.
const DefaultTitle = "Untitled"

// BookmarkItem is the single persisted entity: a saved link or a
// free-text note belonging to one owner.
type BookmarkItem struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	// ID is the canonical unique identifier, stable for the item's lifetime.
	ID string `json:"id"`

	// OwnerID identifies whose collection the item belongs to.
	// Empty in single-user/local mode.
	OwnerID string `json:"ownerId,omitempty"`

	// Kind is "link" or "note".
	Kind Kind `json:"kind"`

	// URL is present iff Kind == KindLink.
	URL string `json:"url,omitempty"`

	// ─────────────────────────────
	// Descriptive fields
	// ─────────────────────────────

	Title          string   `json:"title"`
	SiteName       string   `json:"siteName,omitempty"`
	Description    string   `json:"description,omitempty"`
	ThumbnailURL   string   `json:"thumbnailUrl,omitempty"`
	CustomImageURL string   `json:"customImageUrl,omitempty"`
	NoteBody       string   `json:"noteBody,omitempty"`
	Tags           []string `json:"tags"`

	// ─────────────────────────────
	// User state & observation
	// ─────────────────────────────

	// IsStarred is a user-toggleable flag, independent of any filter.
	IsStarred bool `json:"isStarred"`

	// ViewCount only ever grows, and only via the visit action on links.
	ViewCount int `json:"viewCount"`

	// LastViewedAt is set whenever ViewCount increments. nil = never viewed.
	LastViewedAt *time.Time `json:"lastViewedAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`

	// UpdatedAt is refreshed on every mutation.
	UpdatedAt time.Time `json:"updatedAt"`

	// ImageSource records display-image provenance.
	ImageSource ImageSource `json:"imageSource"`
}

// Draft is an unsaved item payload supplied to create.
// ID and timestamps are assigned by the store, never by the caller.
type Draft struct {
	Kind           Kind
	URL            string
	Title          string
	SiteName       string
	Description    string
	ThumbnailURL   string
	CustomImageURL string
	NoteBody       string
	Tags           []string
	IsStarred      bool
	ImageSource    ImageSource
}

// Validate checks a draft against the entity invariants.
// It returns a *ValidationError describing the first violation found.
func (d Draft) Validate() error {
	switch d.Kind {
	case KindLink:
		if d.URL == "" {
			return &ValidationError{Field: "url", Reason: "link items require a url"}
		}
		if !validURL(d.URL) {
			return &ValidationError{Field: "url", Reason: "url must be absolute http(s)"}
		}
	case KindNote:
		if d.URL != "" {
			return &ValidationError{Field: "url", Reason: "note items must not carry a url"}
		}
	default:
		return &ValidationError{Field: "kind", Reason: `kind must be "link" or "note"`}
	}
	return nil
}

// NewItem builds a persisted item from a validated draft.
// Empty titles fall back to DefaultTitle, tags are normalized,
// counters start at zero.
func NewItem(d Draft, id, ownerID string, now time.Time) BookmarkItem {
	title := strings.TrimSpace(d.Title)
	if title == "" {
		title = DefaultTitle
	}

	source := d.ImageSource
	if source == "" {
		source = ImageFallback
	}

	return BookmarkItem{
		ID:             id,
		OwnerID:        ownerID,
		Kind:           d.Kind,
		URL:            d.URL,
		Title:          title,
		SiteName:       d.SiteName,
		Description:    d.Description,
		ThumbnailURL:   d.ThumbnailURL,
		CustomImageURL: d.CustomImageURL,
		NoteBody:       d.NoteBody,
		Tags:           NormalizeTags(d.Tags),
		IsStarred:      d.IsStarred,
		ViewCount:      0,
		CreatedAt:      now,
		UpdatedAt:      now,
		ImageSource:    source,
	}
}

// ItemPatch is a partial update. Only non-nil fields are applied.
// Kind and CreatedAt are immutable and deliberately absent.
type ItemPatch struct {
	URL            *string
	Title          *string
	SiteName       *string
	Description    *string
	ThumbnailURL   *string
	CustomImageURL *string
	NoteBody       *string
	Tags           *[]string
	IsStarred      *bool
	ViewCount      *int
	LastViewedAt   *time.Time
	ImageSource    *ImageSource
	UpdatedAt      *time.Time
}

// Validate checks patch fields against the entity invariants.
func (p ItemPatch) Validate(kind Kind) error {
	if p.URL != nil {
		if kind == KindNote && *p.URL != "" {
			return &ValidationError{Field: "url", Reason: "note items must not carry a url"}
		}
		if kind == KindLink && !validURL(*p.URL) {
			return &ValidationError{Field: "url", Reason: "url must be absolute http(s)"}
		}
	}
	if p.ViewCount != nil && *p.ViewCount < 0 {
		return &ValidationError{Field: "viewCount", Reason: "viewCount cannot be negative"}
	}
	return nil
}

// Apply merges the patch into the item. Tags are normalized on the way in.
func (it *BookmarkItem) Apply(p ItemPatch) {
	if p.URL != nil {
		it.URL = *p.URL
	}
	if p.Title != nil {
		it.Title = *p.Title
	}
	if p.SiteName != nil {
		it.SiteName = *p.SiteName
	}
	if p.Description != nil {
		it.Description = *p.Description
	}
	if p.ThumbnailURL != nil {
		it.ThumbnailURL = *p.ThumbnailURL
	}
	if p.CustomImageURL != nil {
		it.CustomImageURL = *p.CustomImageURL
	}
	if p.NoteBody != nil {
		it.NoteBody = *p.NoteBody
	}
	if p.Tags != nil {
		it.Tags = NormalizeTags(*p.Tags)
	}
	if p.IsStarred != nil {
		it.IsStarred = *p.IsStarred
	}
	if p.ViewCount != nil {
		it.ViewCount = *p.ViewCount
	}
	if p.LastViewedAt != nil {
		it.LastViewedAt = p.LastViewedAt
	}
	if p.ImageSource != nil {
		it.ImageSource = *p.ImageSource
	}
	if p.UpdatedAt != nil {
		it.UpdatedAt = *p.UpdatedAt
	}
}

func validURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
