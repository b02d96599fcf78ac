package resolver

import (
	"errors"
	"fmt"
)

// ErrorReason classifies why a name failed to resolve.
type ErrorReason int

const (
	// ReasonNotFound means the provider confirmed the name does not resolve.
	// Not retryable within the cache TTL window.
	ReasonNotFound ErrorReason = iota
	// ReasonProviderFailure means the provider call failed transiently.
	// Retryable; never cached as negative.
	ReasonProviderFailure
)

// ResolutionError reports a single name that could not be resolved,
// preserving the caller's original spelling.
type ResolutionError struct {
	Requested string
	Reason    ErrorReason
	Err       error
}

// Error implements the error interface.
func (e *ResolutionError) Error() string {
	switch e.Reason {
	case ReasonNotFound:
		return fmt.Sprintf("card %q not found", e.Requested)
	default:
		if e.Err != nil {
			return fmt.Sprintf("lookup of %q failed: %v", e.Requested, e.Err)
		}
		return fmt.Sprintf("lookup of %q failed", e.Requested)
	}
}

// Unwrap exposes the underlying provider error, if any.
func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// Retryable reports whether retrying the same request could succeed.
func (e *ResolutionError) Retryable() bool {
	return e.Reason == ReasonProviderFailure
}

// AsResolutionError extracts a *ResolutionError from an error chain.
func AsResolutionError(err error) (*ResolutionError, bool) {
	var re *ResolutionError
	ok := errors.As(err, &re)
	return re, ok
}
