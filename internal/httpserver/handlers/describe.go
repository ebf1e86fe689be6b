package handlers

import (
	"net/http"
	"strings"

	"github.com/MrSnakeDoc/bookshelf/internal/domain"
	"github.com/MrSnakeDoc/bookshelf/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookshelf/internal/logger"
	"github.com/MrSnakeDoc/bookshelf/internal/metadata"
)

type describeResponse struct {
	metadata.Description
	AutoTags []string `json:"autoTags"`
}

// Describe fetches page metadata for a URL so clients can prefill a
// new link item. Unreachable or unparsable pages answer with empty
// fields, never an error; the client falls back to manual entry.
func Describe(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rawURL := strings.TrimSpace(r.URL.Query().Get("url"))
		if rawURL == "" {
			writeError(w, d.Logger, &domain.ValidationError{Field: "url", Reason: "url query parameter is required"})
			return
		}

		desc := d.Describer.Describe(r.Context(), rawURL)
		d.Logger.Debug("describe request",
			logger.String("url", rawURL),
			logger.Bool("resolved", desc.Title != ""))

		writeJSON(w, http.StatusOK, describeResponse{
			Description: desc,
			AutoTags:    metadata.AutoTags(rawURL),
		})
	}
}
