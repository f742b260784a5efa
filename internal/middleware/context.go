package middleware

import (
	"context"

	"capriccio/internal/model"
)

type contextKey string

const ctxIdentity contextKey = "identity"

// WithIdentity stores the authenticated identity in ctx.
func WithIdentity(ctx context.Context, identity model.Identity) context.Context {
	return context.WithValue(ctx, ctxIdentity, identity)
}

// IdentityFrom returns the identity stored by Auth.
func IdentityFrom(ctx context.Context) (model.Identity, bool) {
	identity, ok := ctx.Value(ctxIdentity).(model.Identity)
	return identity, ok
}
