package auth

import (
	"context"

	"github.com/relaydesk/relaydesk/pkg/domain/types"
)

// User is an authenticated relay user. Users are declared statically in the
// users file and resolved from the bearer token on each request.
type User struct {
	ID      types.UserID
	Name    string
	Address string
}

// NewAnonymousUser returns the pseudo user installed when authentication is
// disabled. All conversations then belong to this single identity.
func NewAnonymousUser(address string) *User {
	return &User{
		ID:      types.UserID("anonymous"),
		Name:    "Anonymous",
		Address: address,
	}
}

type ctxUserKey struct{}

// ContextWithUser returns a context carrying the authenticated user.
func ContextWithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, ctxUserKey{}, user)
}

// UserFromContext extracts the authenticated user set by the authentication
// middleware. The second return is false when no user is attached.
func UserFromContext(ctx context.Context) (*User, bool) {
	user, ok := ctx.Value(ctxUserKey{}).(*User)
	if !ok || user == nil {
		return nil, false
	}
	return user, true
}
