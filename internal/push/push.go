package push

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/xndadelin/Grosharing/internal/model"

	webpush "github.com/SherClockHolmes/webpush-go"
)

// ErrExpired is returned when a push token is no longer valid (410 Gone or
// DeviceNotRegistered). Callers clear the token from the neighbor row.
var ErrExpired = errors.New("push token expired")

// ErrInvalidToken is returned for tokens that match neither the Expo nor the
// web push format.
var ErrInvalidToken = errors.New("invalid push token")

// Payload is the JSON sent to the web push service.
type Payload struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
	Tag   string            `json:"tag,omitempty"`
}

// Service handles sending web push notifications. A web push token is the
// browser's PushSubscription serialized as JSON.
type Service struct {
	publicKey  string
	privateKey string
	subscriber string
}

// NewService creates a new push service with VAPID keys.
func NewService(publicKey, privateKey, subscriber string) *Service {
	if subscriber == "" {
		subscriber = "mailto:noreply@grosharing.app"
	}
	return &Service{
		publicKey:  publicKey,
		privateKey: privateKey,
		subscriber: subscriber,
	}
}

// VAPIDPublicKey returns the VAPID public key for client-side subscription.
func (s *Service) VAPIDPublicKey() string {
	return s.publicKey
}

// Send sends a push notification to a web push subscription token.
func (s *Service) Send(ctx context.Context, token string, n model.Notification) error {
	sub, err := parseSubscription(token)
	if err != nil {
		return err
	}

	data, err := json.Marshal(Payload{
		Title: n.Title,
		Body:  n.Body,
		Data:  n.Data,
		Tag:   n.Data["type"],
	})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	resp, err := webpush.SendNotificationWithContext(ctx, data, sub, &webpush.Options{
		VAPIDPublicKey:  s.publicKey,
		VAPIDPrivateKey: s.privateKey,
		Subscriber:      s.subscriber,
		TTL:             86400,
	})
	if err != nil {
		return fmt.Errorf("send push: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound {
		return ErrExpired
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("push service returned %d", resp.StatusCode)
	}

	return nil
}

// IsWebPushToken reports whether token is a serialized push subscription with
// an https endpoint and both encryption keys.
func IsWebPushToken(token string) bool {
	_, err := parseSubscription(token)
	return err == nil
}

func parseSubscription(token string) (*webpush.Subscription, error) {
	if !strings.HasPrefix(strings.TrimSpace(token), "{") {
		return nil, ErrInvalidToken
	}
	var sub webpush.Subscription
	if err := json.Unmarshal([]byte(token), &sub); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !strings.HasPrefix(sub.Endpoint, "https://") || sub.Keys.P256dh == "" || sub.Keys.Auth == "" {
		return nil, ErrInvalidToken
	}
	return &sub, nil
}

// GenerateVAPIDKeys generates a new ECDSA P-256 key pair for VAPID.
func GenerateVAPIDKeys() (publicKey, privateKey string, err error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return "", "", fmt.Errorf("generate ECDSA key: %w", err)
	}

	pubBytes := elliptic.Marshal(elliptic.P256(), key.PublicKey.X, key.PublicKey.Y)
	publicKey = base64.RawURLEncoding.EncodeToString(pubBytes)
	privateKey = base64.RawURLEncoding.EncodeToString(key.D.Bytes())

	return publicKey, privateKey, nil
}
