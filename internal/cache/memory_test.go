package cache

import (
	"context"
	"testing"
	"time"

	"authgate/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheSessions(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryCache()

	session, err := store.GetSession(ctx, "browser-1")
	require.NoError(t, err)
	assert.Nil(t, session, "unknown browser should have no session")

	saved := &models.Session{AccessToken: "access", RefreshToken: "refresh", User: models.User{Email: "user@example.com"}}
	require.NoError(t, store.SetSession(ctx, "browser-1", saved))

	session, err = store.GetSession(ctx, "browser-1")
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, "user@example.com", session.User.Email)

	session.User.Email = "mutated@example.com"
	again, err := store.GetSession(ctx, "browser-1")
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", again.User.Email, "returned sessions must be copies")

	require.NoError(t, store.DeleteSession(ctx, "browser-1"))
	session, err = store.GetSession(ctx, "browser-1")
	require.NoError(t, err)
	assert.Nil(t, session)
}

func TestMemoryCacheVerifier(t *testing.T) {
	ctx := context.Background()

	t.Run("should pop the verifier once", func(t *testing.T) {
		store := NewMemoryCache()
		require.NoError(t, store.SetVerifier(ctx, "browser-1", "verifier"))

		verifier, err := store.PopVerifier(ctx, "browser-1")
		require.NoError(t, err)
		assert.Equal(t, "verifier", verifier)

		verifier, err = store.PopVerifier(ctx, "browser-1")
		require.NoError(t, err)
		assert.Empty(t, verifier)
	})

	t.Run("should drop expired verifiers", func(t *testing.T) {
		store := NewMemoryCache()
		now := time.Now()
		store.now = func() time.Time { return now }
		require.NoError(t, store.SetVerifier(ctx, "browser-1", "verifier"))

		store.now = func() time.Time { return now.Add(time.Hour) }
		verifier, err := store.PopVerifier(ctx, "browser-1")
		require.NoError(t, err)
		assert.Empty(t, verifier)
	})
}

func TestMemoryCacheRateLimit(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryCache()
	now := time.Now()
	store.now = func() time.Time { return now }

	for range 3 {
		retryAfter, err := store.GetRateLimit(ctx, "10.0.0.1", 3)
		require.NoError(t, err)
		assert.Zero(t, retryAfter)
	}

	retryAfter, err := store.GetRateLimit(ctx, "10.0.0.1", 3)
	require.NoError(t, err)
	assert.Equal(t, 60, retryAfter)

	retryAfter, err = store.GetRateLimit(ctx, "10.0.0.2", 3)
	require.NoError(t, err)
	assert.Zero(t, retryAfter, "limits are per identifier")

	store.now = func() time.Time { return now.Add(time.Minute) }
	retryAfter, err = store.GetRateLimit(ctx, "10.0.0.1", 3)
	require.NoError(t, err)
	assert.Zero(t, retryAfter, "window should reset after a minute")
}
