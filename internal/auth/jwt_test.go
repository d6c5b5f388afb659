package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/xndadelin/Grosharing/internal/model"
)

func TestSignVerify(t *testing.T) {
	j := NewJWT("secret", "grosharing", time.Hour)

	token, claims, err := j.Sign(model.User{ID: "U1", FullName: "Alice", AvatarURL: "https://a/1.png"})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if claims.ID == "" {
		t.Error("expected token id")
	}

	got, err := j.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got.Subject != "U1" || got.Name != "Alice" {
		t.Errorf("claims = %+v", got)
	}
	if u := got.User(); u.AvatarURL != "https://a/1.png" {
		t.Errorf("user = %+v", u)
	}
	if got.ID != claims.ID {
		t.Errorf("jti = %q, want %q", got.ID, claims.ID)
	}
}

func TestVerifyRejects(t *testing.T) {
	j := NewJWT("secret", "grosharing", time.Hour)
	token, _, _ := j.Sign(model.User{ID: "U1"})

	tests := []struct {
		name  string
		j     *JWT
		token string
	}{
		{"wrong secret", NewJWT("other", "grosharing", time.Hour), token},
		{"wrong issuer", NewJWT("secret", "someone-else", time.Hour), token},
		{"garbage", j, "not.a.token"},
		{"expired", j, mustSign(t, NewJWT("secret", "grosharing", -time.Minute), model.User{ID: "U1"})},
		{"no subject", j, mustSign(t, j, model.User{})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.j.Verify(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("err = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestVerifyRejectsOtherAlgorithm(t *testing.T) {
	claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "U1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := NewJWT("secret", "", time.Hour).Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func mustSign(t *testing.T, j *JWT, u model.User) string {
	t.Helper()
	token, _, err := j.Sign(u)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return token
}
