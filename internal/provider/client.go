package provider

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"authgate/internal/cache"
	"authgate/internal/configuration"
	apierrors "authgate/internal/errors"
	"authgate/internal/messaging"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/singleflight"
)

const (
	actionSignIn       = "sign in"
	actionOAuth        = "oauth sign in"
	actionExchangeCode = "code exchange"
	actionRecover      = "password reset"
	actionRefresh      = "token refresh"
	actionSignOut      = "sign out"
)

const defaultTimeout = 10 * time.Second

var _ IProvider = (*Client)(nil)

type Options struct {
	URL        string
	AnonKey    string
	JWTSecret  string
	Timeout    time.Duration
	Store      cache.ISessionStore
	Publisher  messaging.IPublisher
	InstanceID string
}

// Client talks to a GoTrue compatible /auth/v1 API and owns the per-browser session lifecycle.
type Client struct {
	http       *resty.Client
	authURL    string
	jwtSecret  string
	store      cache.ISessionStore
	hub        *Hub
	publisher  messaging.IPublisher
	instanceID string
	timeout    time.Duration
	refreshes  singleflight.Group
	now        func() time.Time
}

func NewClient(options Options) *Client {
	authURL := strings.TrimRight(options.URL, "/") + "/auth/v1"

	httpClient := resty.New().
		SetBaseURL(authURL).
		SetTransport(otelhttp.NewTransport(http.DefaultTransport)).
		SetHeader("apikey", options.AnonKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-Client-Info", configuration.AppName)

	timeout := options.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	httpClient.SetTimeout(timeout)

	return &Client{
		http:       httpClient,
		authURL:    authURL,
		jwtSecret:  options.JWTSecret,
		store:      options.Store,
		hub:        NewHub(),
		publisher:  options.Publisher,
		instanceID: options.InstanceID,
		timeout:    timeout,
		now:        time.Now,
	}
}

// errorEnvelope covers both GoTrue error shapes: {"msg": ...} and the OAuth style {"error_description": ...}.
type errorEnvelope struct {
	Code             int    `json:"code"`
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (e *errorEnvelope) text() string {
	for _, candidate := range []string{e.Msg, e.Message, e.ErrorDescription, e.Error} {
		if candidate != "" {
			return candidate
		}
	}
	return ""
}

func (c *Client) request(ctx context.Context) *resty.Request {
	return c.http.R().SetContext(ctx).SetError(&errorEnvelope{})
}

// failure converts a resty outcome into the single provider failure kind, or nil on success.
func failure(action string, resp *resty.Response, err error) error {
	if resp != nil && resp.IsError() {
		failed := &apierrors.ProviderActionFailed{Action: action, Status: resp.StatusCode(), Err: err}
		if envelope, ok := resp.Error().(*errorEnvelope); ok && envelope != nil {
			failed.Message = envelope.text()
		}
		return failed
	}
	if err != nil {
		return &apierrors.ProviderActionFailed{Action: action, Message: err.Error(), Err: err}
	}
	return nil
}

func localFailure(action string, err error) error {
	var failed *apierrors.ProviderActionFailed
	if errors.As(err, &failed) {
		return err
	}
	return &apierrors.ProviderActionFailed{Action: action, Message: err.Error(), Err: err}
}

func (c *Client) OnAuthStateChange(browserID string, listener Listener) *Subscription {
	return c.hub.Subscribe(browserID, listener)
}
