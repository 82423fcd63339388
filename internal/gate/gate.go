// Package gate decides which view a browser sees from the session pushed by the identity provider.
package gate

import (
	"context"
	"sync"
	"time"

	"authgate/internal/configuration"
	apierrors "authgate/internal/errors"
	"authgate/internal/models"
	"authgate/internal/provider"

	"go.uber.org/zap"
)

type View int

const (
	Unauthenticated View = iota
	Authenticated
)

func (v View) String() string {
	if v == Authenticated {
		return "authenticated"
	}
	return "unauthenticated"
}

// SessionSource is the part of the identity provider the gate reads from.
type SessionSource interface {
	GetSession(ctx context.Context, browserID string) (*models.Session, error)
	OnAuthStateChange(browserID string, listener provider.Listener) *provider.Subscription
	SignOut(ctx context.Context, browserID string) error
}

// Gate holds the identity of one browser. It never computes a transition itself:
// identity only changes when the provider pushes a session change.
type Gate struct {
	browserID string
	source    SessionSource
	now       func() time.Time

	mu           sync.RWMutex
	user         *models.User
	expiresAt    int64
	subscription *provider.Subscription
	closed       bool
}

func New(source SessionSource, browserID string) *Gate {
	return &Gate{browserID: browserID, source: source, now: time.Now}
}

// Start subscribes to session changes, then queries the current session once.
// The answer is delivered as INITIAL_SESSION, like any other session change.
func (g *Gate) Start(ctx context.Context) {
	g.mu.Lock()
	if g.closed || g.subscription != nil {
		g.mu.Unlock()
		return
	}
	g.subscription = g.source.OnAuthStateChange(g.browserID, g.onAuthStateChange)
	g.mu.Unlock()

	session, err := g.source.GetSession(ctx, g.browserID)
	if err != nil {
		zap.L().Warn("Failed to load current session",
			zap.String("browser_id", g.browserID),
			zap.String("reason", apierrors.MessageOf(err)))
		session = nil
	}
	g.onAuthStateChange(models.EventInitialSession, session)
}

// Revalidate queries the provider again once the access token of the shown identity has expired.
// The provider then refreshes or drops the session and pushes the outcome to the gate.
func (g *Gate) Revalidate(ctx context.Context) {
	if !g.expired() {
		return
	}

	session, err := g.source.GetSession(ctx, g.browserID)
	if err != nil {
		zap.L().Warn("Failed to revalidate session",
			zap.String("browser_id", g.browserID),
			zap.String("reason", apierrors.MessageOf(err)))
		return
	}
	g.setIdentity(session)
}

func (g *Gate) expired() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.closed || g.user == nil || g.expiresAt == 0 {
		return false
	}
	margin := configuration.TokenExpiryMarginSeconds * time.Second
	return g.now().Add(margin).Unix() >= g.expiresAt
}

func (g *Gate) onAuthStateChange(event models.AuthChangeEvent, session *models.Session) {
	zap.L().Debug("Session change observed",
		zap.String("browser_id", g.browserID),
		zap.String("event", string(event)))
	g.setIdentity(session)
}

func (g *Gate) setIdentity(session *models.Session) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return
	}
	if session == nil {
		g.user = nil
		g.expiresAt = 0
		return
	}
	user := session.User
	g.user = &user
	g.expiresAt = session.ExpiresAt
}

// View returns the view to render and, when authenticated, the signed-in user.
func (g *Gate) View() (View, *models.User) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.user == nil {
		return Unauthenticated, nil
	}
	user := *g.user
	return Authenticated, &user
}

// SignOut asks the provider to end the session. The outcome only shows through the next session change.
func (g *Gate) SignOut(ctx context.Context) {
	if err := g.source.SignOut(ctx, g.browserID); err != nil {
		zap.L().Warn("Sign out request failed",
			zap.String("browser_id", g.browserID),
			zap.String("reason", apierrors.MessageOf(err)))
	}
}

// Close releases the session subscription. No notification reaches the gate afterwards.
func (g *Gate) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return
	}
	g.closed = true
	if g.subscription != nil {
		g.subscription.Unsubscribe()
	}
}
