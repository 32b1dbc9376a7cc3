package gmail

import (
	"errors"
	"fmt"
)

var (
	// ErrNoRecipient indicates Send was called without a recipient address.
	ErrNoRecipient = errors.New("recipient address is required")

	// ErrNoCredentials indicates neither credentials.json nor a stored token exists.
	ErrNoCredentials = errors.New("directory must contain token.json or credentials.json")

	// ErrInteractiveUnavailable indicates a new token is needed but no interactive flow is configured.
	ErrInteractiveUnavailable = errors.New("no interactive authorization flow available")

	// ErrStateMismatch indicates the OAuth callback carried an unexpected state value.
	ErrStateMismatch = errors.New("oauth callback state mismatch")

	// ErrMissingCode indicates the OAuth callback carried no authorization code.
	ErrMissingCode = errors.New("oauth callback carried no authorization code")
)

// ConfigurationError reports missing or unusable local setup. Not retryable.
type ConfigurationError struct {
	Path string
	Err  error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("gmail configuration error (%s): %v", e.Path, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// AuthenticationError reports that no valid token could be produced for Sender.
type AuthenticationError struct {
	Sender string
	Err    error
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("gmail authentication failed for %s: %v", e.Sender, e.Err)
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// SendError reports a rejected or failed send. The message was not delivered.
type SendError struct {
	Sender    string
	Recipient string
	Err       error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("gmail send from %s to %s failed: %v", e.Sender, e.Recipient, e.Err)
}

func (e *SendError) Unwrap() error {
	return e.Err
}
