package alert

import (
	"errors"
	"fmt"
)

// PushError describes a failed desktop push delivery.
type PushError struct {
	StatusCode int
	Message    string
	Transient  bool
	Cause      error
}

func (e *PushError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *PushError) Unwrap() error { return e.Cause }

// IsTransient reports whether the failure is worth retrying.
func IsTransient(err error) bool {
	var pushErr *PushError
	if errors.As(err, &pushErr) {
		return pushErr.Transient
	}
	return false
}
