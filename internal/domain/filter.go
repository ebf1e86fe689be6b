package domain

import (
	"sort"
	"strings"
)

// TagMode selects how multiple selected tags combine.
type TagMode string

const (
	// TagModeAll requires every selected tag to be present (AND).
	TagModeAll TagMode = "all"
	// TagModeAny requires at least one selected tag to be present (OR).
	TagModeAny TagMode = "any"
)

// SortKey names the single sortable attribute of a view.
type SortKey string

const (
	SortTitle        SortKey = "title"
	SortCreatedAt    SortKey = "createdAt"
	SortUpdatedAt    SortKey = "updatedAt"
	SortViewCount    SortKey = "viewCount"
	SortLastViewedAt SortKey = "lastViewedAt"
)

// SortDirection is "asc" or "desc".
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// KindAll is the filter value that imposes no kind constraint.
const KindAll Kind = "all"

// FilterSpec is the ephemeral view configuration applied to a
// collection for display. It is owned by the caller and passed in on
// every evaluation; the engine keeps no state between calls.
type FilterSpec struct {
	SearchText   string
	SelectedTags []string
	TagMatchMode TagMode
	StarredOnly  bool
	KindFilter   Kind // KindLink, KindNote, or KindAll/"" for no constraint
	SortKey      SortKey
	SortDir      SortDirection
}

// DefaultFilterSpec returns the reset state of a view:
// everything, newest first, OR tag matching.
func DefaultFilterSpec() FilterSpec {
	return FilterSpec{
		TagMatchMode: TagModeAny,
		KindFilter:   KindAll,
		SortKey:      SortCreatedAt,
		SortDir:      SortDesc,
	}
}

// ApplyFilter produces the ordered, filtered view of a collection.
// It is pure and stable: the input slice is never mutated, and items
// that compare equal on the sort key keep their input order.
func ApplyFilter(items []BookmarkItem, spec FilterSpec) []BookmarkItem {
	out := make([]BookmarkItem, 0, len(items))
	for _, it := range items {
		if matches(it, spec) {
			out = append(out, it)
		}
	}
	sortItems(out, spec)
	return out
}

func matches(it BookmarkItem, spec FilterSpec) bool {
	if q := strings.ToLower(strings.TrimSpace(spec.SearchText)); q != "" {
		if !matchesSearch(it, q) {
			return false
		}
	}

	if len(spec.SelectedTags) > 0 {
		if !matchesTags(it.Tags, spec.SelectedTags, spec.TagMatchMode) {
			return false
		}
	}

	if spec.StarredOnly && !it.IsStarred {
		return false
	}

	if spec.KindFilter == KindLink || spec.KindFilter == KindNote {
		if it.Kind != spec.KindFilter {
			return false
		}
	}

	return true
}

func matchesSearch(it BookmarkItem, q string) bool {
	if strings.Contains(strings.ToLower(it.Title), q) ||
		strings.Contains(strings.ToLower(it.Description), q) ||
		strings.Contains(strings.ToLower(it.NoteBody), q) ||
		strings.Contains(strings.ToLower(it.SiteName), q) {
		return true
	}
	for _, tag := range it.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

func matchesTags(itemTags, selected []string, mode TagMode) bool {
	has := func(tag string) bool {
		tag = strings.ToLower(tag)
		for _, t := range itemTags {
			if strings.ToLower(t) == tag {
				return true
			}
		}
		return false
	}

	if mode == TagModeAll {
		for _, tag := range selected {
			if !has(tag) {
				return false
			}
		}
		return true
	}

	// TagModeAny (default)
	for _, tag := range selected {
		if has(tag) {
			return true
		}
	}
	return false
}

func sortItems(items []BookmarkItem, spec FilterSpec) {
	key := spec.SortKey
	if key == "" {
		return
	}
	desc := spec.SortDir == SortDesc

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]

		// Never-viewed items sort last for lastViewedAt,
		// regardless of direction.
		if key == SortLastViewedAt {
			switch {
			case a.LastViewedAt == nil && b.LastViewedAt == nil:
				return false
			case a.LastViewedAt == nil:
				return false
			case b.LastViewedAt == nil:
				return true
			}
		}

		c := compareByKey(a, b, key)
		if desc {
			return c > 0
		}
		return c < 0
	})
}

// compareByKey returns <0, 0 or >0 like strings.Compare.
func compareByKey(a, b BookmarkItem, key SortKey) int {
	switch key {
	case SortTitle:
		return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
	case SortCreatedAt:
		return a.CreatedAt.Compare(b.CreatedAt)
	case SortUpdatedAt:
		return a.UpdatedAt.Compare(b.UpdatedAt)
	case SortViewCount:
		switch {
		case a.ViewCount < b.ViewCount:
			return -1
		case a.ViewCount > b.ViewCount:
			return 1
		}
		return 0
	case SortLastViewedAt:
		return a.LastViewedAt.Compare(*b.LastViewedAt)
	}
	return 0
}
