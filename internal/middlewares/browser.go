package middlewares

import (
	"context"
	"net/http"
	"time"

	"authgate/internal/configuration"
	"authgate/internal/models"

	"github.com/google/uuid"
)

// BrowserID identifies the browser with an opaque cookie, issuing one on first contact.
// The identifier is stored in the request context under models.BrowserIDKey.
func BrowserID(secureCookies bool) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			browserID := ""
			if cookie, err := r.Cookie(configuration.BrowserCookieName); err == nil {
				if parsed, parseErr := uuid.Parse(cookie.Value); parseErr == nil {
					browserID = parsed.String()
				}
			}

			if browserID == "" {
				browserID = uuid.NewString()
			}

			// Refreshed on every request so the cookie outlives active browsers only.
			http.SetCookie(w, &http.Cookie{
				Name:     configuration.BrowserCookieName,
				Value:    browserID,
				Path:     "/",
				MaxAge:   int((time.Duration(configuration.BrowserCookieMaxAgeDays) * 24 * time.Hour).Seconds()),
				HttpOnly: true,
				Secure:   secureCookies,
				SameSite: http.SameSiteLaxMode,
			})

			ctx := context.WithValue(r.Context(), models.BrowserIDKey{}, browserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
