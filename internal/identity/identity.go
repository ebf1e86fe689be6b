// Package identity resolves the owner of the current session.
// The store consumes it so that it never hardcodes whose collection
// it operates on.
package identity

import "context"

// Provider yields the owner ID for the current operation.
// ok is false when no session is active; the store then performs no
// persistence operations and exposes an empty collection.
type Provider interface {
	CurrentOwner(ctx context.Context) (owner string, ok bool)
}

// Static always returns the same owner. Used for single-user/local
// deployments where BOOKSHELF_DEFAULT_OWNER is set.
type Static struct {
	Owner string
}

func (s Static) CurrentOwner(context.Context) (string, bool) {
	return s.Owner, s.Owner != ""
}

type ctxKey struct{}

// WithOwner returns a context carrying an authenticated owner ID.
// The HTTP auth middleware calls this after token verification.
func WithOwner(ctx context.Context, owner string) context.Context {
	return context.WithValue(ctx, ctxKey{}, owner)
}

// FromContext is a Provider reading the owner placed in the context
// by WithOwner.
type FromContext struct{}

func (FromContext) CurrentOwner(ctx context.Context) (string, bool) {
	owner, ok := ctx.Value(ctxKey{}).(string)
	return owner, ok && owner != ""
}
