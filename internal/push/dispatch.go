package push

import (
	"context"

	"github.com/xndadelin/Grosharing/internal/model"
)

// ValidToken reports whether token is usable by any configured transport.
func ValidToken(token string) bool {
	return IsExpoToken(token) || IsWebPushToken(token)
}

// Dispatcher routes a notification to the Expo API or to web push depending
// on the token's format.
type Dispatcher struct {
	expo *ExpoClient
	web  *Service
}

// NewDispatcher creates a dispatcher. web may be nil when no VAPID keys are
// configured; web push tokens are then rejected with ErrInvalidToken.
func NewDispatcher(expo *ExpoClient, web *Service) *Dispatcher {
	return &Dispatcher{expo: expo, web: web}
}

// Notify sends n to a single device token.
func (d *Dispatcher) Notify(ctx context.Context, token string, n model.Notification) error {
	switch {
	case IsExpoToken(token) && d.expo != nil:
		return d.expo.Send(ctx, token, n)
	case d.web != nil && IsWebPushToken(token):
		return d.web.Send(ctx, token, n)
	default:
		return ErrInvalidToken
	}
}
