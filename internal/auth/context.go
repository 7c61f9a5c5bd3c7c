package auth

import (
	"context"
)

// UserContext holds the authenticated identity for a request.
// With a single configured account the subject only proves a valid session;
// it carries no authorization data.
type UserContext struct {
	Subject string
}

type contextKey string

const userContextKey contextKey = "userContext"

// WithUserContext adds user context to the context
func WithUserContext(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// FromContext extracts user context from the context
func FromContext(ctx context.Context) (*UserContext, bool) {
	user, ok := ctx.Value(userContextKey).(*UserContext)
	return user, ok
}
