package middlewares

import (
	"net"
	"net/http"
	"strconv"
	"strings"

	"authgate/internal/cache"
	apierrors "authgate/internal/errors"
	"authgate/internal/helpers"

	"go.uber.org/zap"
)

// RateLimit caps the requests per minute of a client address. It fails open when the store is unavailable.
func RateLimit(store cache.ISessionStore, requestsPerMinute int, trustedProxies []string) func(next http.Handler) http.Handler {
	trusted := parseTrustedProxies(trustedProxies)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientIP := ClientIP(r, trusted)

			retryAfter, err := store.GetRateLimit(r.Context(), clientIP, requestsPerMinute)
			if err != nil {
				zap.L().Error("Rate limit lookup failed", zap.String("client_ip", clientIP), zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			if retryAfter > 0 {
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				helpers.RespondWithError(w, http.StatusTooManyRequests, []string{apierrors.ErrTooManyRequests})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func parseTrustedProxies(proxies []string) []*net.IPNet {
	var networks []*net.IPNet
	for _, proxy := range proxies {
		proxy = strings.TrimSpace(proxy)
		if proxy == "" {
			continue
		}
		if !strings.Contains(proxy, "/") {
			if strings.Contains(proxy, ":") {
				proxy += "/128"
			} else {
				proxy += "/32"
			}
		}
		_, network, err := net.ParseCIDR(proxy)
		if err != nil {
			zap.L().Warn("Ignoring invalid trusted proxy", zap.String("proxy", proxy), zap.Error(err))
			continue
		}
		networks = append(networks, network)
	}
	return networks
}

func isTrusted(ip net.IP, trusted []*net.IPNet) bool {
	for _, network := range trusted {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// ClientIP returns the address of the client. X-Forwarded-For is only honoured when the peer is a trusted proxy,
// in which case the right-most untrusted hop wins.
func ClientIP(r *http.Request, trusted []*net.IPNet) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}

	peer := net.ParseIP(host)
	if peer == nil || !isTrusted(peer, trusted) {
		return host
	}

	hops := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := net.ParseIP(strings.TrimSpace(hops[i]))
		if hop == nil {
			continue
		}
		if !isTrusted(hop, trusted) {
			return hop.String()
		}
	}
	return host
}
