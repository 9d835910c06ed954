// internal/auth/context.go
//
// Request-scoped identity.
//
// The identity middleware resolves the session's user id once per
// request and stashes it on the request context; handlers read it back
// with auth.UserID.  An empty id means anonymous.
package auth

import (
	"context"
	"strconv"
)

type ctxKey struct{}

// WithUser returns a child context carrying the authenticated user id.
func WithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, userID)
}

// UserID returns the authenticated user id, or "" for anonymous
// requests.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// NumericID returns the user id as an int64 for stores keyed on numeric
// ids.  Anonymous or non-numeric ids map to 0.
func NumericID(ctx context.Context) int64 {
	n, err := strconv.ParseInt(UserID(ctx), 10, 64)
	if err != nil {
		return 0
	}
	return n
}
