package apierrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessageOf(t *testing.T) {
	t.Run("should return the provider message", func(t *testing.T) {
		err := &ProviderActionFailed{Action: "sign in", Message: "Invalid login credentials", Status: 400}
		assert.Equal(t, "Invalid login credentials", MessageOf(err))
	})

	t.Run("should unwrap wrapped provider failures", func(t *testing.T) {
		err := fmt.Errorf("dispatch: %w", &ProviderActionFailed{Action: "recover", Message: "rate limited"})
		assert.Equal(t, "rate limited", MessageOf(err))
	})

	t.Run("should fall back when the provider gave no text", func(t *testing.T) {
		err := &ProviderActionFailed{Action: "sign in"}
		assert.Equal(t, FallbackMessage, MessageOf(err))
		assert.Equal(t, "sign in failed", err.Error())
	})

	t.Run("should use plain error text", func(t *testing.T) {
		assert.Equal(t, "boom", MessageOf(errors.New("boom")))
	})

	t.Run("should return empty for nil", func(t *testing.T) {
		assert.Empty(t, MessageOf(nil))
	})
}
