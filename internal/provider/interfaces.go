package provider

import (
	"context"

	"authgate/internal/models"
)

// IProvider is the hosted identity provider as seen by one browser.
// Every failure returned by an action is an *apierrors.ProviderActionFailed.
type IProvider interface {
	GetSession(ctx context.Context, browserID string) (*models.Session, error)
	OnAuthStateChange(browserID string, listener Listener) *Subscription

	SignInWithPassword(ctx context.Context, browserID string, credentials models.PasswordCredentials) error
	// SignInWithOAuth returns the URL the browser must navigate to.
	SignInWithOAuth(ctx context.Context, browserID string, options models.OAuthOptions) (string, error)
	ExchangeCodeForSession(ctx context.Context, browserID string, code string) error
	ResetPasswordForEmail(ctx context.Context, email string, redirectTo string) error
	SignOut(ctx context.Context, browserID string) error
}
