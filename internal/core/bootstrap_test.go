package core

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"authgate/internal/authform"
	"authgate/internal/cache"
	"authgate/internal/configuration"
	"authgate/internal/models"
	"authgate/internal/provider"
	"authgate/internal/screen"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfiguration() models.Configuration {
	return models.Configuration{
		App: models.AppConfiguration{
			Port:              8080,
			WebURL:            "https://auth.example.com",
			ScreenIdleMinutes: 30,
			SignInRateLimit:   10,
		},
		Provider: models.ProviderConfiguration{
			URL:            "http://127.0.0.1:1",
			AnonKey:        "anon-key",
			OAuthProvider:  configuration.DefaultOAuthProvider,
			TimeoutSeconds: 1,
		},
		Cache:  models.CacheConfiguration{Type: configuration.ProviderMemory},
		Events: models.EventsConfiguration{Type: configuration.ProviderMemory, Topic: "auth_state"},
	}
}

func TestNewRouter(t *testing.T) {
	config := testConfiguration()
	store := cache.NewMemoryCache()
	client := provider.NewClient(provider.Options{URL: config.Provider.URL, AnonKey: config.Provider.AnonKey, Store: store})
	screens := screen.NewRegistry(client, authform.Options{}, time.Minute)
	t.Cleanup(screens.Close)

	router := NewRouter(config, store, screens, client)

	t.Run("should answer health checks without a browser cookie", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Empty(t, recorder.Result().Cookies())
	})

	t.Run("should mount a screen for a new browser", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Contains(t, recorder.Body.String(), "Welcome back")
		require.Len(t, recorder.Result().Cookies(), 1)
		assert.Equal(t, configuration.BrowserCookieName, recorder.Result().Cookies()[0].Name)
		assert.Equal(t, 1, screens.Len())
	})
}

func TestNewCache(t *testing.T) {
	t.Run("should build the memory store", func(t *testing.T) {
		store, err := NewCache(models.CacheConfiguration{Type: configuration.ProviderMemory})
		require.NoError(t, err)
		assert.IsType(t, &cache.MemoryCache{}, store)
	})

	t.Run("should reject an unknown type", func(t *testing.T) {
		_, err := NewCache(models.CacheConfiguration{Type: "memcached"})
		assert.Error(t, err)
	})
}

func TestNewEventsManager(t *testing.T) {
	manager, err := NewEventsManager(models.EventsConfiguration{Type: configuration.ProviderMemory, Topic: "auth_state"}, "instance-a")
	require.NoError(t, err)
	t.Cleanup(manager.Close)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	messages, err := manager.Subscriber().Subscribe(ctx)
	require.NoError(t, err)

	require.NoError(t, manager.Publisher().Publish(message.NewMessage(watermill.NewUUID(), []byte(`{}`))))

	select {
	case msg := <-messages:
		assert.Equal(t, `{}`, string(msg.Payload))
		msg.Ack()
	case <-time.After(time.Second):
		t.Fatal("message not delivered")
	}
}

func TestTelemetryDisabled(t *testing.T) {
	shutdown, err := NewTracerProvider(context.Background(), models.TracingConfiguration{})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))

	profiler, err := StartProfiler(models.ProfilingConfiguration{})
	require.NoError(t, err)
	assert.Nil(t, profiler)
}
