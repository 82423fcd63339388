// Package authform holds the sign-in form state and translates its three actions into provider calls.
package authform

import (
	"context"
	"sync"

	"authgate/internal/configuration"
	apierrors "authgate/internal/errors"
	"authgate/internal/models"
	"authgate/internal/toast"

	"go.uber.org/zap"
)

// Actions is the part of the identity provider the form dispatches to.
type Actions interface {
	SignInWithPassword(ctx context.Context, browserID string, credentials models.PasswordCredentials) error
	SignInWithOAuth(ctx context.Context, browserID string, options models.OAuthOptions) (string, error)
	ResetPasswordForEmail(ctx context.Context, email string, redirectTo string) error
}

type Options struct {
	// OAuthProvider is the provider name passed to the OAuth redirect. Defaults to linkedin.
	OAuthProvider string
	// OAuthRedirectTo is where the provider sends the browser back after the OAuth handshake.
	OAuthRedirectTo string
}

// FormState is rebuilt for every screen and never persisted.
// Loading is only true between the dispatch of an action and its resolution.
type FormState struct {
	Email     string
	Password  string
	Loading   bool
	Error     *string
	Success   *string
	ResetMode bool
}

type Form struct {
	browserID string
	actions   Actions
	notifier  toast.Notifier
	options   Options

	// mu protects state for memory safety only. It is never held across a provider call,
	// so a second submission while one is pending is dispatched as well.
	mu    sync.Mutex
	state FormState
}

func New(actions Actions, notifier toast.Notifier, browserID string, options Options) *Form {
	if options.OAuthProvider == "" {
		options.OAuthProvider = configuration.DefaultOAuthProvider
	}
	return &Form{
		browserID: browserID,
		actions:   actions,
		notifier:  notifier,
		options:   options,
	}
}

// State returns a snapshot of the form.
func (f *Form) State() FormState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *Form) SetEmail(email string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state.Email = email
}

func (f *Form) SetPassword(password string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state.Password = password
}

func (f *Form) update(fn func(state *FormState)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(&f.state)
}

func strPtr(s string) *string {
	return &s
}

// SignInWithPassword dispatches the email and password currently in the form.
// On success nothing but Loading changes: the provider's session change swaps the view.
func (f *Form) SignInWithPassword(ctx context.Context) {
	var credentials models.PasswordCredentials
	f.update(func(state *FormState) {
		state.Loading = true
		state.Error = nil
		credentials = models.PasswordCredentials{Email: state.Email, Password: state.Password}
	})
	defer f.update(func(state *FormState) { state.Loading = false })

	err := f.actions.SignInWithPassword(ctx, f.browserID, credentials)
	if err != nil {
		message := f.fail(err)
		f.notifier.Error(configuration.ToastSignInFailed, message)
		return
	}

	f.notifier.Success(configuration.ToastSignedIn, "")
}

// SignInWithOAuth starts the OAuth redirect and returns the URL to send the browser to.
// It never touches Loading: success means the browser leaves the page.
func (f *Form) SignInWithOAuth(ctx context.Context) (string, bool) {
	redirect, err := f.actions.SignInWithOAuth(ctx, f.browserID, models.OAuthOptions{
		Provider:   f.options.OAuthProvider,
		RedirectTo: f.options.OAuthRedirectTo,
	})
	if err == nil && redirect == "" {
		err = apierrors.ErrEmptyOAuthResult
	}
	if err != nil {
		message := f.fail(err)
		f.notifier.Error(configuration.ToastOAuthFailed, message)
		return "", false
	}

	f.notifier.Success(configuration.ToastOAuthRedirecting, "")
	return redirect, true
}

// RequestPasswordReset asks the provider to mail a reset link pointing at origin's reset landing path.
func (f *Form) RequestPasswordReset(ctx context.Context, origin string) {
	var email string
	f.update(func(state *FormState) {
		state.Loading = true
		state.Error = nil
		state.Success = nil
		email = state.Email
	})
	defer f.update(func(state *FormState) { state.Loading = false })

	err := f.actions.ResetPasswordForEmail(ctx, email, origin+configuration.ResetPasswordPath)
	if err != nil {
		message := f.fail(err)
		f.notifier.Error(configuration.ToastResetFailed, message)
		return
	}

	f.update(func(state *FormState) {
		state.Success = strPtr(configuration.MessageResetLinkSent)
	})
	f.notifier.Success(configuration.ToastResetSent, configuration.ToastResetSentDetail)
}

func (f *Form) fail(err error) string {
	message := apierrors.MessageOf(err)
	zap.L().Info("Provider action failed", zap.String("browser_id", f.browserID), zap.Error(err))
	f.update(func(state *FormState) {
		state.Error = strPtr(message)
	})
	return message
}

// ForgotPassword switches to the reset view. Success and Loading are left as they are.
func (f *Form) ForgotPassword() {
	f.update(func(state *FormState) {
		state.ResetMode = true
		state.Error = nil
	})
}

// BackToSignIn restores the initial form.
func (f *Form) BackToSignIn() {
	f.update(func(state *FormState) {
		state.Error = nil
		state.Success = nil
		state.ResetMode = false
		state.Email = ""
		state.Password = ""
	})
}

// DismissError clears the error, as the sign-up link does.
func (f *Form) DismissError() {
	f.update(func(state *FormState) {
		state.Error = nil
	})
}
