package errors

import (
	"errors"
	"fmt"
)

// Error taxonomy for the portal. Authentication errors redirect browser-facing
// routes to the login page (401 for the internal API); upstream errors
// propagate the provider's HTTP status.
var (
	// Authentication errors
	ErrStateMismatch  = errors.New("mismatching state parameter")
	ErrNoRefreshToken = errors.New("no refresh token in session")
	ErrNoSessionToken = errors.New("no token in session")
	ErrNoAccessToken  = errors.New("provider returned no access token")

	// Token errors
	ErrMalformedToken = errors.New("malformed token")
	ErrTokenExpired   = errors.New("token expired")
)

// UpstreamError reports a non-2xx or failed call to the identity provider or
// its management API. Status is 502 for transport-level failures.
type UpstreamError struct {
	Status int
	Op     string
	Err    error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: upstream status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: upstream status %d", e.Op, e.Status)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Upstream builds an UpstreamError for the given operation and status.
func Upstream(op string, status int, err error) *UpstreamError {
	return &UpstreamError{Status: status, Op: op, Err: err}
}

// UpstreamStatus extracts the upstream HTTP status from err, or 0 when err is
// not an UpstreamError.
func UpstreamStatus(err error) int {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue.Status
	}
	return 0
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
