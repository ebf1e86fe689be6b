package deps

import (
	"time"

	"github.com/MrSnakeDoc/bookshelf/internal/backend"
	"github.com/MrSnakeDoc/bookshelf/internal/logger"
	"github.com/MrSnakeDoc/bookshelf/internal/metadata"
	"github.com/MrSnakeDoc/bookshelf/internal/store"
)

type Deps struct {
	Logger       logger.Logger
	StartTime    time.Time
	Version      string
	Commit       string
	BuildDate    string
	GoVersion    string
	AllowedHosts []string            // Host headers allowed to access the server
	AllowedCIDRS []string            // IPs allowed to access healthz/readyz endpoints
	TrustProxy   bool                // true if running behind a trusted reverse proxy (e.g., cloudflared)
	APITokens    map[string]string   // bearer token -> owner id
	DefaultOwner string              // owner used for unauthenticated requests, empty = reject
	Sessions     *store.Sessions     // per-owner collection registry
	Describer    *metadata.Describer // page metadata fetcher for /describe
	Backend      backend.Backend     // used by readyz to probe persistence
}
