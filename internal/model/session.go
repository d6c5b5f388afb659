package model

// User is the identity attached to a session token.
type User struct {
	ID        string `json:"id"`
	FullName  string `json:"full_name"`
	AvatarURL string `json:"avatar_url"`
}

// Session is returned when a provider token is exchanged.
type Session struct {
	AccessToken string `json:"access_token"`
	ExpiresAt   int64  `json:"expires_at"`
	User        User   `json:"user"`
}
