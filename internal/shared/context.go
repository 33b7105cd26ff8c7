package shared

import "context"

type contextKey string

const identityKey contextKey = "identity"

// Identity describes the authenticated caller for a request.
type Identity struct {
	UserID   int64
	Email    string
	Role     string
	FullName string
}

// ContextWithIdentity stores the authenticated identity in the context.
func ContextWithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext retrieves the authenticated identity, nil when absent.
func IdentityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityKey).(*Identity)
	return id
}

// UserIDFromContext returns the caller's user ID, zero when unauthenticated.
func UserIDFromContext(ctx context.Context) int64 {
	if id := IdentityFromContext(ctx); id != nil {
		return id.UserID
	}
	return 0
}
