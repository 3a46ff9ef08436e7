package entity

import (
	"errors"
	"fmt"
)

// Standard domain errors
var (
	ErrRateLimitExceeded  = errors.New("rate limit exceeded: too many generations requested")
	ErrInvalidRequest     = errors.New("invalid request parameters")
	ErrUnknownModel       = errors.New("unknown model")
	ErrUnknownPerspective = errors.New("unknown perspective")
	ErrBackendUnavailable = errors.New("backend unavailable")
)

// BackendError reports a failed load or generate call for one model.
type BackendError struct {
	Model ModelChoice
	Op    string // "load" or "generate"
	Err   error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s %s failed: %v", e.Model, e.Op, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

// Is lets callers match any backend failure with ErrBackendUnavailable.
func (e *BackendError) Is(target error) bool {
	return target == ErrBackendUnavailable
}
