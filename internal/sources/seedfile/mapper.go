package seedfile

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/MrSnakeDoc/bookshelf/internal/domain"
)

// MapItems converts seed entries to domain items for one owner.
// Entries with neither url nor note are skipped and counted.
func MapItems(f File, ownerID string, now time.Time) (items []domain.BookmarkItem, skipped int) {
	for _, entry := range f {
		var draft domain.Draft
		switch {
		case entry.URL != "":
			draft = domain.Draft{
				Kind:     domain.KindLink,
				URL:      entry.URL,
				Title:    entry.Title,
				SiteName: entry.SiteName,
			}
		case entry.Note != "":
			draft = domain.Draft{
				Kind:     domain.KindNote,
				Title:    entry.Title,
				NoteBody: entry.Note,
			}
		default:
			skipped++
			continue
		}
		draft.Tags = entry.Tags
		draft.IsStarred = entry.Starred

		if err := draft.Validate(); err != nil {
			skipped++
			continue
		}

		items = append(items, domain.NewItem(draft, seedID(entry), ownerID, now))
	}

	return items, skipped
}

// seedID derives a stable ID from the entry content so the same seed
// entry always maps to the same item.
func seedID(e Entry) string {
	key := e.URL
	if key == "" {
		key = "note:" + e.Title + ":" + e.Note
	}
	sum := sha256.Sum256([]byte(key))
	return "seed-" + hex.EncodeToString(sum[:])[:16]
}
