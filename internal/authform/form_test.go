package authform

import (
	"context"
	"errors"
	"testing"

	"authgate/internal/configuration"
	apierrors "authgate/internal/errors"
	"authgate/internal/models"
	"authgate/internal/toast"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeActions struct {
	form *Form

	signInErr   error
	oauthURL    string
	oauthErr    error
	resetErr    error
	credentials []models.PasswordCredentials
	oauth       []models.OAuthOptions
	resetEmail  string
	resetTarget string

	loadingDuringCall []bool
}

func (f *fakeActions) observe() {
	f.loadingDuringCall = append(f.loadingDuringCall, f.form.State().Loading)
}

func (f *fakeActions) SignInWithPassword(_ context.Context, _ string, credentials models.PasswordCredentials) error {
	f.observe()
	f.credentials = append(f.credentials, credentials)
	return f.signInErr
}

func (f *fakeActions) SignInWithOAuth(_ context.Context, _ string, options models.OAuthOptions) (string, error) {
	f.observe()
	f.oauth = append(f.oauth, options)
	return f.oauthURL, f.oauthErr
}

func (f *fakeActions) ResetPasswordForEmail(_ context.Context, email string, redirectTo string) error {
	f.observe()
	f.resetEmail = email
	f.resetTarget = redirectTo
	return f.resetErr
}

func newForm(t *testing.T) (*Form, *fakeActions, *toast.Queue) {
	t.Helper()
	actions := &fakeActions{oauthURL: "https://project.supabase.co/auth/v1/authorize?provider=linkedin"}
	toasts := toast.NewQueue()
	form := New(actions, toasts, "browser-1", Options{OAuthRedirectTo: "https://auth.example.com/auth/callback"})
	actions.form = form
	return form, actions, toasts
}

func rejected(message string) error {
	return &apierrors.ProviderActionFailed{Action: "test", Message: message, Status: 400}
}

func TestSignInWithPassword(t *testing.T) {
	ctx := context.Background()

	t.Run("should notify success and leave no error", func(t *testing.T) {
		form, actions, toasts := newForm(t)
		form.SetEmail("user@example.com")
		form.SetPassword("correct")

		form.SignInWithPassword(ctx)

		state := form.State()
		assert.False(t, state.Loading)
		assert.Nil(t, state.Error)
		assert.Equal(t, []bool{true}, actions.loadingDuringCall)
		assert.Equal(t, []models.PasswordCredentials{{Email: "user@example.com", Password: "correct"}}, actions.credentials)
		assert.Equal(t, []toast.Toast{{Kind: toast.KindSuccess, Title: "Successfully signed in!"}}, toasts.Drain())
	})

	t.Run("should report the provider message on failure", func(t *testing.T) {
		form, _, toasts := newForm(t)
		form.SetEmail("user@example.com")
		form.SetPassword("wrong")
		form.actions.(*fakeActions).signInErr = rejected("Invalid login credentials")

		form.SignInWithPassword(ctx)

		state := form.State()
		assert.False(t, state.Loading)
		require.NotNil(t, state.Error)
		assert.Equal(t, "Invalid login credentials", *state.Error)
		assert.Equal(t, []toast.Toast{{
			Kind:        toast.KindError,
			Title:       "Failed to sign in",
			Description: "Invalid login credentials",
		}}, toasts.Drain())
	})

	t.Run("should fall back when the provider gives no message", func(t *testing.T) {
		form, actions, _ := newForm(t)
		actions.signInErr = rejected("")

		form.SignInWithPassword(ctx)

		require.NotNil(t, form.State().Error)
		assert.Equal(t, apierrors.FallbackMessage, *form.State().Error)
	})

	t.Run("should clear a previous error when dispatching", func(t *testing.T) {
		form, actions, _ := newForm(t)
		actions.signInErr = rejected("Invalid login credentials")
		form.SignInWithPassword(ctx)
		require.NotNil(t, form.State().Error)

		actions.signInErr = nil
		form.SignInWithPassword(ctx)

		assert.Nil(t, form.State().Error)
	})

	t.Run("should not guard against a second submission", func(t *testing.T) {
		form, actions, _ := newForm(t)
		form.SignInWithPassword(ctx)
		form.SignInWithPassword(ctx)

		assert.Len(t, actions.credentials, 2)
	})
}

func TestSignInWithOAuth(t *testing.T) {
	ctx := context.Background()

	t.Run("should return the redirect without touching loading", func(t *testing.T) {
		form, actions, toasts := newForm(t)

		redirect, ok := form.SignInWithOAuth(ctx)

		assert.True(t, ok)
		assert.Equal(t, actions.oauthURL, redirect)
		assert.Equal(t, []bool{false}, actions.loadingDuringCall)
		assert.Equal(t, []models.OAuthOptions{{
			Provider:   configuration.DefaultOAuthProvider,
			RedirectTo: "https://auth.example.com/auth/callback",
		}}, actions.oauth)
		assert.Equal(t, []toast.Toast{{Kind: toast.KindSuccess, Title: "Redirecting to LinkedIn..."}}, toasts.Drain())
	})

	t.Run("should set the error when the provider rejects", func(t *testing.T) {
		form, actions, toasts := newForm(t)
		actions.oauthErr = rejected("popup_closed")

		redirect, ok := form.SignInWithOAuth(ctx)

		assert.False(t, ok)
		assert.Empty(t, redirect)
		state := form.State()
		require.NotNil(t, state.Error)
		assert.Equal(t, "popup_closed", *state.Error)
		assert.False(t, state.Loading)
		assert.Equal(t, []bool{false}, actions.loadingDuringCall, "loading is never set on this path")
		assert.Equal(t, []toast.Toast{{
			Kind:        toast.KindError,
			Title:       "Failed to sign in with LinkedIn",
			Description: "popup_closed",
		}}, toasts.Drain())
	})

	t.Run("should treat an empty redirect as a failure", func(t *testing.T) {
		form, actions, _ := newForm(t)
		actions.oauthURL = ""

		_, ok := form.SignInWithOAuth(ctx)

		assert.False(t, ok)
		assert.NotNil(t, form.State().Error)
	})
}

func TestRequestPasswordReset(t *testing.T) {
	ctx := context.Background()

	t.Run("should set the success message", func(t *testing.T) {
		form, actions, toasts := newForm(t)
		form.ForgotPassword()
		form.SetEmail("user@example.com")

		form.RequestPasswordReset(ctx, "https://auth.example.com")

		state := form.State()
		assert.False(t, state.Loading)
		assert.Nil(t, state.Error)
		require.NotNil(t, state.Success)
		assert.Equal(t, "Check your email for the password reset link", *state.Success)
		assert.Equal(t, "user@example.com", actions.resetEmail)
		assert.Equal(t, "https://auth.example.com/reset-password", actions.resetTarget)
		assert.Equal(t, []bool{true}, actions.loadingDuringCall)
		assert.Equal(t, []toast.Toast{{
			Kind:        toast.KindSuccess,
			Title:       "Password reset email sent",
			Description: "Check your email for the reset link",
		}}, toasts.Drain())
	})

	t.Run("should leave success empty on failure", func(t *testing.T) {
		form, actions, toasts := newForm(t)
		form.SetEmail("user@example.com")
		form.RequestPasswordReset(ctx, "https://auth.example.com")
		require.NotNil(t, form.State().Success)
		toasts.Drain()

		actions.resetErr = errors.New("rate limit exceeded")
		form.RequestPasswordReset(ctx, "https://auth.example.com")

		state := form.State()
		assert.Nil(t, state.Success)
		require.NotNil(t, state.Error)
		assert.Equal(t, "rate limit exceeded", *state.Error)
		assert.False(t, state.Loading)
		assert.Equal(t, []toast.Toast{{
			Kind:        toast.KindError,
			Title:       "Failed to send reset email",
			Description: "rate limit exceeded",
		}}, toasts.Drain())
	})

	t.Run("should clear a previous error on success", func(t *testing.T) {
		form, actions, _ := newForm(t)
		actions.resetErr = rejected("boom")
		form.RequestPasswordReset(ctx, "https://auth.example.com")

		actions.resetErr = nil
		form.RequestPasswordReset(ctx, "https://auth.example.com")

		state := form.State()
		assert.Nil(t, state.Error)
		assert.NotNil(t, state.Success)
	})
}

func TestModeSwitching(t *testing.T) {
	ctx := context.Background()

	t.Run("forgot password should enter reset mode and only clear the error", func(t *testing.T) {
		form, actions, _ := newForm(t)
		form.SetEmail("user@example.com")
		form.SetPassword("secret")
		actions.signInErr = rejected("Invalid login credentials")
		form.SignInWithPassword(ctx)

		form.ForgotPassword()

		state := form.State()
		assert.True(t, state.ResetMode)
		assert.Nil(t, state.Error)
		assert.Equal(t, "user@example.com", state.Email)
		assert.Equal(t, "secret", state.Password)
	})

	t.Run("forgot password should be idempotent apart from the error", func(t *testing.T) {
		form, actions, _ := newForm(t)
		form.ForgotPassword()
		form.SetEmail("user@example.com")
		form.RequestPasswordReset(ctx, "https://auth.example.com")
		actions.resetErr = rejected("boom")
		before := form.State()
		form.RequestPasswordReset(ctx, "https://auth.example.com")
		require.NotNil(t, form.State().Error)

		form.ForgotPassword()

		after := form.State()
		assert.Nil(t, after.Error)
		assert.Equal(t, before.ResetMode, after.ResetMode)
		assert.Equal(t, before.Email, after.Email)
		assert.Equal(t, before.Loading, after.Loading)
	})

	t.Run("back to sign in should restore the initial state", func(t *testing.T) {
		form, actions, _ := newForm(t)
		form.SetEmail("user@example.com")
		form.SetPassword("secret")
		form.ForgotPassword()
		form.RequestPasswordReset(ctx, "https://auth.example.com")
		actions.signInErr = rejected("boom")
		form.SignInWithPassword(ctx)

		form.BackToSignIn()

		assert.Equal(t, FormState{}, form.State())
	})

	t.Run("dismiss should only clear the error", func(t *testing.T) {
		form, actions, _ := newForm(t)
		form.SetEmail("user@example.com")
		actions.signInErr = rejected("boom")
		form.SignInWithPassword(ctx)

		form.DismissError()

		state := form.State()
		assert.Nil(t, state.Error)
		assert.Equal(t, "user@example.com", state.Email)
	})
}
