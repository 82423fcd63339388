package apierrors

import (
	"errors"
	"fmt"
)

// FallbackMessage is shown when a provider failure carries no message text.
const FallbackMessage = "An error occurred"

// HTTP 400 Bad Request.
const (
	ErrBadRequest = "BAD_REQUEST"
)

// HTTP 429 Too Many Requests.
const (
	ErrTooManyRequests = "TOO_MANY_REQUESTS"
)

var (
	ErrMissingVerifier  = errors.New("no pending oauth flow for this browser")
	ErrEmptyOAuthResult = errors.New("provider returned no authorization url")
)

// ProviderActionFailed is the single failure kind of every action dispatched to the identity provider.
// Network failures, validation failures and rejections all collapse into it.
type ProviderActionFailed struct {
	Action  string
	Message string
	Status  int
	Err     error
}

func (e *ProviderActionFailed) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s failed", e.Action)
	}
	return fmt.Sprintf("%s failed: %s", e.Action, e.Message)
}

func (e *ProviderActionFailed) Unwrap() error {
	return e.Err
}

// MessageOf returns the text a user should see for err.
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	var failed *ProviderActionFailed
	if errors.As(err, &failed) {
		if failed.Message != "" {
			return failed.Message
		}
		return FallbackMessage
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return FallbackMessage
}
