package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/bookshelf/internal/domain"
	"github.com/MrSnakeDoc/bookshelf/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookshelf/internal/store"
)

type tagsResponse struct {
	Tags []domain.TagCount `json:"tags"`
}

// Tags serves the tag histogram of the whole collection, most used
// first.
func Tags(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		col, ok := collection(d, r)
		if !ok {
			writeError(w, d.Logger, store.ErrNoSession)
			return
		}

		writeJSON(w, http.StatusOK, tagsResponse{
			Tags: domain.AggregateTags(col.Items()),
		})
	}
}
