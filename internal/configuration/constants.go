package configuration

const AppName = "authgate"

// Screen copy shown in toasts and inline messages.
const (
	ToastSignedIn           = "Successfully signed in!"
	ToastSignInFailed       = "Failed to sign in"
	ToastOAuthRedirecting   = "Redirecting to LinkedIn..."
	ToastOAuthFailed        = "Failed to sign in with LinkedIn"
	ToastResetSent          = "Password reset email sent"
	ToastResetSentDetail    = "Check your email for the reset link"
	ToastResetFailed        = "Failed to send reset email"
	MessageResetLinkSent    = "Check your email for the password reset link"
	DefaultOAuthProvider    = "linkedin"
	ResetPasswordPath       = "/reset-password"
	OAuthCallbackPath       = "/auth/callback"
	BrowserCookieName       = "authgate_browser"
	BrowserCookieMaxAgeDays = 30
)

const (
	CacheSessionKey   = "session:%s"
	CacheVerifierKey  = "pkce:%s"
	CacheRateLimitKey = "ratelimit:%s"
	// CacheVerifierTTL bounds how long an OAuth redirect may take to come back (in seconds).
	CacheVerifierTTL = 600
	// CacheSessionTTL keeps stored sessions past access token expiry so they can be refreshed (in seconds).
	CacheSessionTTL = 30 * 24 * 3600
)

// Session access tokens are refreshed this many seconds before they expire.
const TokenExpiryMarginSeconds = 10

const (
	EventsMetadataInstanceID = "instance_id"
	ScreenSweepIntervalSecs  = 60
)

// Cache and messaging provider types.
const (
	ProviderMemory    = "memory"
	ProviderRedis     = "redis"
	ProviderValkey    = "valkey"
	ProviderJetstream = "jetstream"
)

var ArrayConfigFields = []string{
	"app.allowed_origins",
	"app.trusted_proxies",
	"cache.redis.hosts",
	"cache.valkey.hosts",
}

var ConfigFileSearchPaths = []string{
	"./config.yaml",
	"templates/config.yaml",
}
