package middlewares

import (
	"context"
	"net/http"

	apierrors "authgate/internal/errors"
	"authgate/internal/helpers"

	"github.com/go-playground/form/v4"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// BodyKey holds the decoded and validated request values.
type BodyKey struct{}

var (
	decoder  = form.NewDecoder()
	validate = validator.New(validator.WithRequiredStructEnabled())
)

// Validate decodes the form values of the request (query and urlencoded body) into T,
// rejects it with 400 when a field constraint fails and stores it in the context otherwise.
func Validate[T any](next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var data T

		if err := r.ParseForm(); err != nil {
			helpers.RespondWithError(w, http.StatusBadRequest, []string{apierrors.ErrBadRequest})
			return
		}

		if err := decoder.Decode(&data, r.Form); err != nil {
			zap.L().Debug("Failed to decode form", zap.Error(err))
			helpers.RespondWithError(w, http.StatusBadRequest, []string{apierrors.ErrBadRequest})
			return
		}

		if err := validate.Struct(data); err != nil {
			helpers.RespondWithError(w, http.StatusBadRequest, fieldErrors(err))
			return
		}

		ctx := context.WithValue(r.Context(), BodyKey{}, data)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func fieldErrors(err error) []string {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{apierrors.ErrBadRequest}
	}

	messages := make([]string, 0, len(validationErrors))
	for _, fieldErr := range validationErrors {
		messages = append(messages, fieldErr.Field()+": "+fieldErr.Tag())
	}
	return messages
}

// Body returns the values stored by Validate[T].
func Body[T any](r *http.Request) (T, bool) {
	data, ok := r.Context().Value(BodyKey{}).(T)
	return data, ok
}
