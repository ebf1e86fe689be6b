package routes

import (
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/bookshelf/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookshelf/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/bookshelf/internal/httpserver/mw"
)

func init() { Register(registerDescribe) }

// Describe triggers outbound fetches, so it gets a rate limit on top
// of auth.
func registerDescribe(r chi.Router, d deps.Deps) {
	limit := mw.RateLimit(mw.RateLimitConfig{
		Burst:             5,
		RefillPerIPPerMin: 30,
		MaxEntries:        4096,
		SweepInterval:     time.Minute,
		IdleTTL:           15 * time.Minute,
		TrustProxy:        d.TrustProxy,
	})
	r.With(mw.EnforceHost(d.AllowedHosts, d.Logger), mw.Auth(d.APITokens, d.DefaultOwner, d.Logger), limit).Get("/api/describe", handlers.Describe(d))
}
