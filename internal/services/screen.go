package services

import (
	"context"
	"embed"
	"html/template"
	"net/http"

	"authgate/internal/authform"
	"authgate/internal/configuration"
	apierrors "authgate/internal/errors"
	"authgate/internal/gate"
	h "authgate/internal/helpers"
	m "authgate/internal/middlewares"
	"authgate/internal/models"
	"authgate/internal/screen"
	"authgate/internal/toast"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

var screenTemplate = template.Must(template.ParseFS(templateFS, "templates/screen.html"))

// CodeExchanger completes the OAuth redirect started by the form.
type CodeExchanger interface {
	ExchangeCodeForSession(ctx context.Context, browserID string, code string) error
}

type ScreenService struct {
	Screens   *screen.Registry
	Exchanger CodeExchanger
	// WebURL is the origin the password reset link points back to.
	WebURL string
	// Limiter guards the routes dispatching to the provider. Optional.
	Limiter func(http.Handler) http.Handler
}

func (s ScreenService) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", s.Render)

	r.Route("/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if s.Limiter != nil {
				r.Use(s.Limiter)
			}
			r.With(m.Validate[models.SignInBody]).Post("/sign-in", s.SignIn)
			r.Post("/oauth/linkedin", s.SignInWithOAuth)
			r.With(m.Validate[models.OAuthCallbackQuery]).Get("/callback", s.OAuthCallback)
			r.With(m.Validate[models.PasswordResetRequestBody]).Post("/reset-password", s.RequestPasswordReset)
		})

		r.Post("/forgot", s.ForgotPassword)
		r.Post("/back", s.formAction(func(form *authform.Form) { form.BackToSignIn() }))
		r.Post("/dismiss", s.formAction(func(form *authform.Form) { form.DismissError() }))
		r.Post("/sign-out", s.SignOut)
	})
	return r
}

type screenView struct {
	Authenticated bool
	User          *models.User
	Form          authform.FormState
	Toasts        []toast.Toast
}

func (s ScreenService) open(w http.ResponseWriter, r *http.Request) (*screen.Screen, bool) {
	browserID, err := h.GetBrowserID(r.Context())
	if err != nil {
		zap.L().Error("Request reached the screen without a browser id", zap.Error(err))
		h.RespondWithError(w, http.StatusBadRequest, []string{apierrors.ErrBadRequest})
		return nil, false
	}
	return s.Screens.Open(r.Context(), browserID), true
}

func backToScreen(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Render shows the greeting when signed in and the form otherwise, then flushes pending toasts.
// An identity whose access token expired is checked with the provider first.
func (s ScreenService) Render(w http.ResponseWriter, r *http.Request) {
	sc, ok := s.open(w, r)
	if !ok {
		return
	}

	sc.Gate.Revalidate(r.Context())
	view, user := sc.Gate.View()
	data := screenView{
		Authenticated: view == gate.Authenticated,
		User:          user,
		Form:          sc.Form.State(),
		Toasts:        sc.Toasts.Drain(),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := screenTemplate.Execute(w, data); err != nil {
		zap.L().Error("Failed to render screen", zap.String("browser_id", sc.BrowserID), zap.Error(err))
	}
}

func (s ScreenService) SignIn(w http.ResponseWriter, r *http.Request) {
	body, _ := m.Body[models.SignInBody](r)
	sc, ok := s.open(w, r)
	if !ok {
		return
	}

	sc.Form.SetEmail(body.Email)
	sc.Form.SetPassword(body.Password)
	sc.Form.SignInWithPassword(r.Context())
	backToScreen(w, r)
}

func (s ScreenService) SignInWithOAuth(w http.ResponseWriter, r *http.Request) {
	sc, ok := s.open(w, r)
	if !ok {
		return
	}

	redirect, ok := sc.Form.SignInWithOAuth(r.Context())
	if !ok {
		backToScreen(w, r)
		return
	}
	http.Redirect(w, r, redirect, http.StatusSeeOther)
}

// OAuthCallback finishes the OAuth redirect. Success shows up through the session change it emits.
func (s ScreenService) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	query, _ := m.Body[models.OAuthCallbackQuery](r)
	sc, ok := s.open(w, r)
	if !ok {
		return
	}

	switch {
	case query.Error != "":
		message := query.ErrorDescription
		if message == "" {
			message = query.Error
		}
		zap.L().Info("Provider rejected the oauth sign in",
			zap.String("browser_id", sc.BrowserID),
			zap.String("error", query.Error))
		sc.Toasts.Error(configuration.ToastOAuthFailed, message)
	case query.Code == "":
		sc.Toasts.Error(configuration.ToastOAuthFailed, apierrors.FallbackMessage)
	default:
		if err := s.Exchanger.ExchangeCodeForSession(r.Context(), sc.BrowserID, query.Code); err != nil {
			zap.L().Info("OAuth code exchange failed", zap.String("browser_id", sc.BrowserID), zap.Error(err))
			sc.Toasts.Error(configuration.ToastOAuthFailed, apierrors.MessageOf(err))
		} else {
			sc.Toasts.Success(configuration.ToastSignedIn, "")
		}
	}
	backToScreen(w, r)
}

func (s ScreenService) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	body, _ := m.Body[models.PasswordResetRequestBody](r)
	sc, ok := s.open(w, r)
	if !ok {
		return
	}

	sc.Form.SetEmail(body.Email)
	sc.Form.RequestPasswordReset(r.Context(), s.WebURL)
	backToScreen(w, r)
}

// ForgotPassword switches to reset mode, keeping what was typed in the sign-in form.
func (s ScreenService) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	sc, ok := s.open(w, r)
	if !ok {
		return
	}

	if err := r.ParseForm(); err == nil {
		if email := r.PostForm.Get("email"); email != "" {
			sc.Form.SetEmail(email)
		}
		if password := r.PostForm.Get("password"); password != "" {
			sc.Form.SetPassword(password)
		}
	}
	sc.Form.ForgotPassword()
	backToScreen(w, r)
}

func (s ScreenService) SignOut(w http.ResponseWriter, r *http.Request) {
	sc, ok := s.open(w, r)
	if !ok {
		return
	}

	sc.Gate.SignOut(r.Context())
	backToScreen(w, r)
}

func (s ScreenService) formAction(action func(form *authform.Form)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sc, ok := s.open(w, r)
		if !ok {
			return
		}
		action(sc.Form)
		backToScreen(w, r)
	}
}
