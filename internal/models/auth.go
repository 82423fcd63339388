package models

import "time"

// AuthChangeEvent is the kind of a session change notification. Consumers treat it as opaque.
type AuthChangeEvent string

const (
	EventInitialSession AuthChangeEvent = "INITIAL_SESSION"
	EventSignedIn       AuthChangeEvent = "SIGNED_IN"
	EventSignedOut      AuthChangeEvent = "SIGNED_OUT"
	EventTokenRefreshed AuthChangeEvent = "TOKEN_REFRESHED"
)

// BrowserIDKey is the context key holding the browser identifier set by the BrowserID middleware.
type BrowserIDKey struct{}

type User struct {
	ID           string         `json:"id"`
	Aud          string         `json:"aud,omitempty"`
	Role         string         `json:"role,omitempty"`
	Email        string         `json:"email"`
	Phone        string         `json:"phone,omitempty"`
	LastSignInAt *time.Time     `json:"last_sign_in_at,omitempty"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
}

// Session is the provider-issued proof of an authenticated identity, as returned by the token endpoint.
type Session struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

// Expired reports whether the access token is past its expiry, with a safety margin.
func (s *Session) Expired(now time.Time, margin time.Duration) bool {
	if s.ExpiresAt == 0 {
		return false
	}
	return now.Add(margin).Unix() >= s.ExpiresAt
}

// AuthStateChange is the event payload fanned out across instances.
// Tokens never leave the instance that obtained them.
type AuthStateChange struct {
	Event     AuthChangeEvent `json:"event"`
	BrowserID string          `json:"browser_id"`
	User      *User           `json:"user,omitempty"`
}

type PasswordCredentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type OAuthOptions struct {
	Provider   string
	RedirectTo string
}

type SignInBody struct {
	Email    string `form:"email"    validate:"required"`
	Password string `form:"password" validate:"required"`
}

type PasswordResetRequestBody struct {
	Email string `form:"email" validate:"required"`
}

type OAuthCallbackQuery struct {
	Code             string `form:"code"`
	Error            string `form:"error"`
	ErrorDescription string `form:"error_description"`
}
