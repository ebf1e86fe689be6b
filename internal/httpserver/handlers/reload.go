package handlers

import (
	"net/http"
	"time"

	"github.com/MrSnakeDoc/bookshelf/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookshelf/internal/logger"
	"github.com/MrSnakeDoc/bookshelf/internal/store"
)

type reloadResponse struct {
	Items      int       `json:"items"`
	ReloadedAt time.Time `json:"reloadedAt"`
}

// Reload forces a fresh read of the caller's collection from
// persistence, discarding the in-memory snapshot.
func Reload(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		col, ok := collection(d, r)
		if !ok {
			writeError(w, d.Logger, store.ErrNoSession)
			return
		}

		if err := col.Load(r.Context()); err != nil {
			writeError(w, d.Logger, err)
			return
		}

		items := col.Items()
		d.Logger.Info("manual collection reload",
			logger.Int("items", len(items)),
			logger.String("remote_ip", r.RemoteAddr))

		writeJSON(w, http.StatusOK, reloadResponse{
			Items:      len(items),
			ReloadedAt: col.LastReload(),
		})
	}
}
