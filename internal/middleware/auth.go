package middleware

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/xndadelin/Grosharing/internal/auth"
	"github.com/xndadelin/Grosharing/internal/store"
)

// RequireAuth validates the bearer session token and populates AuthContext.
// WebSocket clients that cannot set headers may pass the token as the
// access_token query parameter.
func RequireAuth(tokens *auth.JWT, sessions *store.SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			claims, err := tokens.Verify(token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			revoked, err := sessions.IsRevoked(claims.ID)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "failed to check session")
				return
			}
			if revoked {
				writeError(w, http.StatusUnauthorized, "session signed out")
				return
			}

			var expiresAt time.Time
			if claims.ExpiresAt != nil {
				expiresAt = claims.ExpiresAt.Time
			}
			ac := auth.AuthContext{
				UserID:    claims.Subject,
				FullName:  claims.Name,
				AvatarURL: claims.Picture,
				TokenID:   claims.ID,
				ExpiresAt: expiresAt,
			}

			ctx := auth.WithAuth(r.Context(), ac)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken extracts the token from the Authorization header, falling back
// to the access_token query parameter.
func BearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return r.URL.Query().Get("access_token")
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
