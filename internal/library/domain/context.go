package domain

import "context"

type userCtxKey struct{}

// WithUser attaches an authenticated identity to the request context. The
// auth gate is the only writer; handlers and resolvers read it back.
func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u.Redacted())
}

// UserFromContext returns the authenticated identity, if any.
func UserFromContext(ctx context.Context) (User, bool) {
	u, ok := ctx.Value(userCtxKey{}).(User)
	return u, ok
}
