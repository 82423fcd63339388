package provider

import (
	"context"
	"net/url"

	"authgate/internal/models"

	"golang.org/x/oauth2"
)

// SignInWithOAuth prepares a PKCE authorization request. The verifier stays server side until the callback.
func (c *Client) SignInWithOAuth(ctx context.Context, browserID string, options models.OAuthOptions) (string, error) {
	verifier := oauth2.GenerateVerifier()
	if err := c.store.SetVerifier(ctx, browserID, verifier); err != nil {
		return "", localFailure(actionOAuth, err)
	}

	query := url.Values{}
	query.Set("provider", options.Provider)
	if options.RedirectTo != "" {
		query.Set("redirect_to", options.RedirectTo)
	}
	query.Set("code_challenge", oauth2.S256ChallengeFromVerifier(verifier))
	query.Set("code_challenge_method", "s256")

	return c.authURL + "/authorize?" + query.Encode(), nil
}
