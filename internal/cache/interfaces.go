package cache

import (
	"context"

	"authgate/internal/models"
)

// ISessionStore keeps per-browser provider sessions, the way a browser SDK keeps them in local storage.
type ISessionStore interface {
	// GetSession returns nil without error when the browser has no stored session.
	GetSession(ctx context.Context, browserID string) (*models.Session, error)
	SetSession(ctx context.Context, browserID string, session *models.Session) error
	DeleteSession(ctx context.Context, browserID string) error

	// SetVerifier stores the PKCE code verifier of a pending OAuth redirect.
	// Uses configuration.CacheVerifierTTL for TTL.
	SetVerifier(ctx context.Context, browserID string, verifier string) error
	// PopVerifier returns and removes the pending verifier, or "" when none is pending.
	PopVerifier(ctx context.Context, browserID string) (string, error)

	// GetRateLimit returns 0 when the request is allowed, or the seconds to wait otherwise.
	GetRateLimit(ctx context.Context, identifier string, requestsPerMinute int) (int, error)

	Close() error
}
