package auth

import (
	"context"
)

var grantCtxKey = &contextKey{"grant"}

type contextKey struct {
	name string
}

// WithGrantContext sets the Grant in the given context.
func WithGrantContext(ctx context.Context, grant Grant) context.Context {
	return context.WithValue(ctx, grantCtxKey, grant)
}

// GrantFromContext finds the Grant from the context.
func GrantFromContext(ctx context.Context) (Grant, bool) {
	grant, ok := ctx.Value(grantCtxKey).(Grant)
	return grant, ok
}
