package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/xndadelin/Grosharing/internal/auth"
	"github.com/xndadelin/Grosharing/internal/model"
	"github.com/xndadelin/Grosharing/internal/store"
)

type AuthHandler struct {
	userStore    *store.UserStore
	sessionStore *store.SessionStore
	sessions     *auth.JWT
	provider     *auth.JWT
	logger       *slog.Logger
}

// NewAuthHandler creates the session endpoints. sessions signs the tokens
// this server hands out; provider verifies tokens issued by the identity
// provider.
func NewAuthHandler(us *store.UserStore, ss *store.SessionStore, sessions, provider *auth.JWT, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		userStore:    us,
		sessionStore: ss,
		sessions:     sessions,
		provider:     provider,
		logger:       logger,
	}
}

type sessionRequest struct {
	ProviderToken string `json:"provider_token"`
}

// CreateSession exchanges an identity-provider token for a session token.
func (h *AuthHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.ProviderToken = strings.TrimSpace(req.ProviderToken)
	if req.ProviderToken == "" {
		writeError(w, http.StatusBadRequest, "provider_token is required")
		return
	}

	claims, err := h.provider.Verify(req.ProviderToken)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid provider token")
		return
	}

	user, err := h.userStore.Upsert(claims.User())
	if err != nil {
		h.logger.Error("upsert user", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to sign in")
		return
	}

	token, sc, err := h.sessions.Sign(*user)
	if err != nil {
		h.logger.Error("sign session", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to sign in")
		return
	}

	h.logger.Info("user signed in", "user", user.ID)
	writeJSON(w, http.StatusOK, model.Session{
		AccessToken: token,
		ExpiresAt:   sc.ExpiresAt.Unix(),
		User:        *user,
	})
}

// CurrentUser returns the signed-in user.
func (h *AuthHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	user, err := h.userStore.GetByID(ac.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get user")
		return
	}
	if user == nil {
		u := ac.User()
		user = &u
	}
	writeJSON(w, http.StatusOK, user)
}

// Logout revokes the session token used for the request.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	if err := h.sessionStore.Revoke(ac.TokenID, ac.UserID, ac.ExpiresAt); err != nil {
		h.logger.Error("revoke session", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to sign out")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
