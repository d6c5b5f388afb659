package push

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"time"

	expo "github.com/oliveroneill/exponent-server-sdk-golang/sdk"

	"github.com/xndadelin/Grosharing/internal/model"
)

var expoTokenRe = regexp.MustCompile(`^Expo(nent)?PushToken\[[^\[\]]+\]$`)

// IsExpoToken reports whether token has the bracketed Expo push token format.
func IsExpoToken(token string) bool {
	return expoTokenRe.MatchString(token)
}

// ExpoClient sends notifications through the Expo push API.
type ExpoClient struct {
	client *expo.PushClient
}

// NewExpoClient creates an Expo client. An empty host uses Expo's public API;
// accessToken is only needed when enhanced push security is enabled.
func NewExpoClient(host, accessToken string) *ExpoClient {
	return &ExpoClient{
		client: expo.NewPushClient(&expo.ClientConfig{
			Host:        host,
			AccessToken: accessToken,
			HTTPClient:  &http.Client{Timeout: 10 * time.Second},
		}),
	}
}

// Send delivers one notification to one Expo token. The SDK does not take a
// context, so ctx is only checked before the request is made.
func (c *ExpoClient) Send(ctx context.Context, token string, n model.Notification) error {
	if !IsExpoToken(token) {
		return ErrInvalidToken
	}
	to, err := expo.NewExponentPushToken(token)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	resp, err := c.client.Publish(&expo.PushMessage{
		To:    []expo.ExponentPushToken{to},
		Title: n.Title,
		Body:  n.Body,
		Data:  n.Data,
		Sound: "default",
	})
	if err != nil {
		return fmt.Errorf("send expo push: %w", err)
	}

	if err := resp.ValidateResponse(); err != nil {
		var notRegistered *expo.DeviceNotRegisteredError
		if errors.As(err, &notRegistered) {
			return ErrExpired
		}
		return fmt.Errorf("expo ticket error: %w", err)
	}
	return nil
}
