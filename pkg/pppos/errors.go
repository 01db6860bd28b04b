package pppos

import "errors"

var (
	// ErrNotActive is returned when connect is called before activation.
	ErrNotActive = errors.New("session not active")

	// ErrConnectInProgress is returned when a connect sequence has already
	// been issued and not yet torn down.
	ErrConnectInProgress = errors.New("connect already in progress")

	// ErrInvalidAuthMode is returned for an unsupported auth mode value.
	ErrInvalidAuthMode = errors.New("invalid auth mode")

	// ErrMissingCredentials is returned when a non-none auth mode is
	// requested without both username and password.
	ErrMissingCredentials = errors.New("username and password required")
)
