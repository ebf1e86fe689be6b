package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/bookshelf/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookshelf/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/bookshelf/internal/httpserver/mw"
)

func init() { Register(registerItems) }

func registerItems(r chi.Router, d deps.Deps) {
	r.Route("/api/items", func(r chi.Router) {
		r.Use(mw.EnforceHost(d.AllowedHosts, d.Logger))
		r.Use(mw.Auth(d.APITokens, d.DefaultOwner, d.Logger))

		r.Get("/", handlers.ListItems(d))
		r.Post("/", handlers.CreateItem(d))
		r.Patch("/{id}", handlers.UpdateItem(d))
		r.Delete("/{id}", handlers.DeleteItem(d))
		r.Post("/{id}/visit", handlers.VisitItem(d))
		r.Post("/{id}/star", handlers.StarItem(d))
	})
}
