package service

import "errors"

var (
	// ErrBadRequest marks a structurally incomplete request.
	ErrBadRequest = errors.New("bad request")
	// ErrForbidden means the presented API key matches no issued key.
	ErrForbidden = errors.New("invalid api key")
	// ErrInvalidPassword means the operator password did not match.
	ErrInvalidPassword = errors.New("invalid password")
)

// UpstreamError wraps a failure of the completion provider.
type UpstreamError struct {
	Err error
}

func (e *UpstreamError) Error() string {
	return "provider error: " + e.Err.Error()
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
