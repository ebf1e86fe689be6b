package mw

import (
	"net/http"
	"strings"

	"github.com/MrSnakeDoc/bookshelf/internal/identity"
	"github.com/MrSnakeDoc/bookshelf/internal/logger"
)

// Auth resolves the owner for the request and stores it in the context.
// A known bearer token maps to its owner; requests without a token fall
// back to defaultOwner. Unknown tokens, and missing tokens when no
// default is configured, are rejected with 401.
func Auth(tokens map[string]string, defaultOwner string, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if token, ok := strings.CutPrefix(header, "Bearer "); ok {
				token = strings.TrimSpace(token)
				if owner, found := tokens[token]; found {
					next.ServeHTTP(w, r.WithContext(identity.WithOwner(r.Context(), owner)))
					return
				}
				log.Debug("Auth: unknown token REJECTED",
					logger.String("remote_ip", r.RemoteAddr))
				w.WriteHeader(http.StatusUnauthorized)
				return
			}

			if defaultOwner != "" {
				next.ServeHTTP(w, r.WithContext(identity.WithOwner(r.Context(), defaultOwner)))
				return
			}

			log.Debug("Auth: missing token REJECTED",
				logger.String("remote_ip", r.RemoteAddr))
			w.WriteHeader(http.StatusUnauthorized)
		})
	}
}
