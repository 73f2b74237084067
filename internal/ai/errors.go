package ai

import (
	"errors"
	"fmt"
)

// ErrNotConfigured is returned when the provider credential is missing at call time.
var ErrNotConfigured = errors.New("ai provider not configured")

// ProviderError wraps a failed call to a remote embedding provider.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s provider: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

func IsProviderError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}

func wrapProviderError(provider string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotConfigured) || IsProviderError(err) {
		return err
	}
	return &ProviderError{Provider: provider, Err: err}
}
