package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/xndadelin/Grosharing/internal/model"
)

// ErrInvalidToken is returned for tokens that fail signature, expiry or
// claim checks.
var ErrInvalidToken = errors.New("invalid token")

// Claims are the JWT claims of both session tokens and identity-provider
// tokens: the subject is the provider's user id.
type Claims struct {
	Name    string `json:"name"`
	Picture string `json:"picture,omitempty"`
	jwt.RegisteredClaims
}

// User returns the identity described by the claims.
func (c *Claims) User() model.User {
	return model.User{ID: c.Subject, FullName: c.Name, AvatarURL: c.Picture}
}

// JWT signs and verifies HS256 tokens with a shared secret.
type JWT struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewJWT creates a signer. ttl is the lifetime of tokens it signs.
func NewJWT(secret, issuer string, ttl time.Duration) *JWT {
	return &JWT{secret: []byte(secret), issuer: issuer, ttl: ttl}
}

// Sign issues a session token for u and returns it with its claims.
func (j *JWT) Sign(u model.User) (string, *Claims, error) {
	now := time.Now()
	claims := &Claims{
		Name:    u.FullName,
		Picture: u.AvatarURL,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   u.ID,
			Issuer:    j.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(j.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return signed, claims, nil
}

// Verify parses tokenStr and checks signature, expiry, issuer and subject.
func (j *JWT) Verify(tokenStr string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if j.issuer != "" {
		opts = append(opts, jwt.WithIssuer(j.issuer))
	}

	var claims Claims
	t, err := jwt.ParseWithClaims(tokenStr, &claims, func(token *jwt.Token) (any, error) {
		return j.secret, nil
	}, opts...)
	if err != nil || !t.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing sub", ErrInvalidToken)
	}
	return &claims, nil
}
