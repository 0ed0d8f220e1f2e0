// Package auth carries the identity of the caller through a request.
// It does not authenticate; the caller is whoever the upstream gateway says it is.
package auth

import (
	"context"
	"strings"
)

// UserContext holds the identified caller
type UserContext struct {
	DisplayName string
	Email       string
	// Anonymous is true when no identity was supplied and the default owner was used
	Anonymous bool
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

// OwnerFromContext returns the caller's display name, or fallback when unidentified
func OwnerFromContext(ctx context.Context, fallback string) string {
	if user, ok := FromContext(ctx); ok && strings.TrimSpace(user.DisplayName) != "" {
		return strings.TrimSpace(user.DisplayName)
	}
	return fallback
}
