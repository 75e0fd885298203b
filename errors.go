package vaultconfig

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is returned when a required argument to one of the
	// read operations is empty or otherwise unusable. It is always surfaced
	// to the immediate caller, never swallowed.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrDisabled is returned by NewClient when Options.Disabled is set.
	// LoadInto treats the disabled state as a silent no-op instead.
	ErrDisabled = errors.New("vault configuration source is disabled")
)

// ConfigError reports invalid or missing options. The wrapped error is a
// go-multierror aggregate, so a single failure report lists every violation
// at once.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid vault configuration: %s", e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// AuthError reports a failure to produce or validate credentials for a
// session with Vault. Method names the authentication strategy that failed.
type AuthError struct {
	Method string
	Err    error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("vault %s authentication failed: %s", e.Method, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// StoreError reports a failure in a live operation against the secret
// store. Op is the high-level operation ("connect", "list", "read") and
// Path the Vault API path involved, if any.
type StoreError struct {
	Op   string
	Path string
	Err  error
}

func (e *StoreError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("vault %s failed: %s", e.Op, e.Err)
	}
	return fmt.Sprintf("vault %s %s failed: %s", e.Op, e.Path, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
