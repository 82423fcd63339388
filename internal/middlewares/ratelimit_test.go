package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"authgate/internal/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimit(t *testing.T) {
	t.Run("should reject requests above the limit", func(t *testing.T) {
		handler := RateLimit(cache.NewMemoryCache(), 2, nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))

		var codes []int
		for range 3 {
			req := httptest.NewRequest(http.MethodPost, "/auth/sign-in", nil)
			req.RemoteAddr = "203.0.113.7:51000"
			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, req)
			codes = append(codes, recorder.Code)
			if recorder.Code == http.StatusTooManyRequests {
				assert.NotEmpty(t, recorder.Header().Get("Retry-After"))
				assert.JSONEq(t, `{"status":429,"error":["TOO_MANY_REQUESTS"]}`, recorder.Body.String())
			}
		}

		assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)
	})

	t.Run("should count clients separately", func(t *testing.T) {
		handler := RateLimit(cache.NewMemoryCache(), 1, nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))

		for _, addr := range []string{"203.0.113.7:1", "203.0.113.8:1"} {
			req := httptest.NewRequest(http.MethodPost, "/auth/sign-in", nil)
			req.RemoteAddr = addr
			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, req)
			assert.Equal(t, http.StatusNoContent, recorder.Code)
		}
	})
}

func TestClientIP(t *testing.T) {
	trusted := parseTrustedProxies([]string{"10.0.0.0/8", "192.168.1.1", "not-an-ip"})
	require.Len(t, trusted, 2)

	tests := []struct {
		name      string
		remote    string
		forwarded string
		expected  string
	}{
		{name: "direct client", remote: "203.0.113.7:1234", expected: "203.0.113.7"},
		{name: "untrusted peer forging a header", remote: "203.0.113.7:1234", forwarded: "1.2.3.4", expected: "203.0.113.7"},
		{name: "trusted proxy", remote: "10.1.2.3:1234", forwarded: "198.51.100.4", expected: "198.51.100.4"},
		{name: "chain of proxies", remote: "10.1.2.3:1234", forwarded: "1.2.3.4, 198.51.100.4, 192.168.1.1", expected: "198.51.100.4"},
		{name: "trusted proxy without header", remote: "192.168.1.1:80", expected: "192.168.1.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			assert.Equal(t, tt.expected, ClientIP(req, trusted))
		})
	}
}

