package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"authgate/internal/configuration"
	apierrors "authgate/internal/errors"
	"authgate/internal/helpers"
	"authgate/internal/models"

	"go.uber.org/zap"
)

type refreshTokenBody struct {
	RefreshToken string `json:"refresh_token"`
}

type pkceBody struct {
	AuthCode     string `json:"auth_code"`
	CodeVerifier string `json:"code_verifier"`
}

type recoverBody struct {
	Email string `json:"email"`
}

// GetSession returns the stored session of browserID, refreshing it when the access token expired.
// A session the provider refuses to refresh is dropped and reported as signed out.
func (c *Client) GetSession(ctx context.Context, browserID string) (*models.Session, error) {
	session, err := c.store.GetSession(ctx, browserID)
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	if session == nil {
		return nil, nil
	}

	if !session.Expired(c.now(), configuration.TokenExpiryMarginSeconds*time.Second) {
		return session, nil
	}

	if session.RefreshToken == "" {
		return nil, c.dropSession(ctx, browserID)
	}

	// Concurrent callers of browserID share one refresh, which outlives the cancellation of any of them.
	refreshed, err, _ := c.refreshes.Do(browserID, func() (interface{}, error) {
		refreshCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()
		return c.refresh(refreshCtx, browserID, session.RefreshToken)
	})
	if err != nil {
		var failed *apierrors.ProviderActionFailed
		if errors.As(err, &failed) && failed.Status >= http.StatusBadRequest && failed.Status < http.StatusInternalServerError {
			zap.L().Info("Provider refused to refresh session",
				zap.String("browser_id", browserID),
				zap.String("reason", failed.Message))
			return nil, c.dropSession(ctx, browserID)
		}
		return nil, err
	}

	return refreshed.(*models.Session), nil
}

func (c *Client) refresh(ctx context.Context, browserID string, refreshToken string) (*models.Session, error) {
	resp, err := c.request(ctx).
		SetQueryParam("grant_type", "refresh_token").
		SetBody(refreshTokenBody{RefreshToken: refreshToken}).
		SetResult(&models.Session{}).
		Post("/token")
	if failed := failure(actionRefresh, resp, err); failed != nil {
		return nil, failed
	}

	session := resp.Result().(*models.Session)
	if err = c.saveSession(ctx, browserID, session); err != nil {
		return nil, localFailure(actionRefresh, err)
	}
	c.emit(models.EventTokenRefreshed, browserID, session)
	return session, nil
}

func (c *Client) SignInWithPassword(
	ctx context.Context,
	browserID string,
	credentials models.PasswordCredentials,
) error {
	resp, err := c.request(ctx).
		SetQueryParam("grant_type", "password").
		SetBody(credentials).
		SetResult(&models.Session{}).
		Post("/token")
	if failed := failure(actionSignIn, resp, err); failed != nil {
		return failed
	}

	session := resp.Result().(*models.Session)
	if err = c.saveSession(ctx, browserID, session); err != nil {
		return localFailure(actionSignIn, err)
	}

	zap.L().Info("User signed in", zap.String("browser_id", browserID), zap.String("user_id", session.User.ID))
	c.emit(models.EventSignedIn, browserID, session)
	return nil
}

func (c *Client) ExchangeCodeForSession(ctx context.Context, browserID string, code string) error {
	verifier, err := c.store.PopVerifier(ctx, browserID)
	if err != nil {
		return localFailure(actionExchangeCode, err)
	}
	if verifier == "" {
		return localFailure(actionExchangeCode, apierrors.ErrMissingVerifier)
	}

	resp, err := c.request(ctx).
		SetQueryParam("grant_type", "pkce").
		SetBody(pkceBody{AuthCode: code, CodeVerifier: verifier}).
		SetResult(&models.Session{}).
		Post("/token")
	if failed := failure(actionExchangeCode, resp, err); failed != nil {
		return failed
	}

	session := resp.Result().(*models.Session)
	if err = c.saveSession(ctx, browserID, session); err != nil {
		return localFailure(actionExchangeCode, err)
	}

	zap.L().Info("User signed in with oauth", zap.String("browser_id", browserID), zap.String("user_id", session.User.ID))
	c.emit(models.EventSignedIn, browserID, session)
	return nil
}

func (c *Client) ResetPasswordForEmail(ctx context.Context, email string, redirectTo string) error {
	req := c.request(ctx).SetBody(recoverBody{Email: email})
	if redirectTo != "" {
		req.SetQueryParam("redirect_to", redirectTo)
	}

	resp, err := req.Post("/recover")
	return failure(actionRecover, resp, err)
}

// SignOut always removes the local session. Provider answers meaning the session is already gone are not errors.
func (c *Client) SignOut(ctx context.Context, browserID string) error {
	session, err := c.store.GetSession(ctx, browserID)
	if err != nil {
		return localFailure(actionSignOut, err)
	}

	var remoteErr error
	if session != nil {
		resp, err := c.request(ctx).SetAuthToken(session.AccessToken).Post("/logout")
		remoteErr = failure(actionSignOut, resp, err)
		if resp != nil && isSessionGone(resp.StatusCode()) {
			remoteErr = nil
		}
	}

	if err = c.dropSession(ctx, browserID); err != nil {
		return localFailure(actionSignOut, err)
	}
	return remoteErr
}

func isSessionGone(status int) bool {
	return status == http.StatusUnauthorized || status == http.StatusForbidden || status == http.StatusNotFound
}

func (c *Client) saveSession(ctx context.Context, browserID string, session *models.Session) error {
	helpers.FillExpiry(c.jwtSecret, session, c.now())
	return c.store.SetSession(ctx, browserID, session)
}

func (c *Client) dropSession(ctx context.Context, browserID string) error {
	if err := c.store.DeleteSession(ctx, browserID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	c.emit(models.EventSignedOut, browserID, nil)
	return nil
}
