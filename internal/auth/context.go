package auth

import (
	"context"
	"time"

	"github.com/xndadelin/Grosharing/internal/model"
)

type contextKey struct{}

// AuthContext is the verified session attached to a request.
type AuthContext struct {
	UserID    string
	FullName  string
	AvatarURL string
	TokenID   string
	ExpiresAt time.Time
}

// User returns the identity carried by the session.
func (ac AuthContext) User() model.User {
	return model.User{ID: ac.UserID, FullName: ac.FullName, AvatarURL: ac.AvatarURL}
}

func WithAuth(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

func FromContext(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(contextKey{}).(AuthContext)
	return ac, ok
}

func UserID(ctx context.Context) string {
	ac, ok := FromContext(ctx)
	if !ok {
		return ""
	}
	return ac.UserID
}
