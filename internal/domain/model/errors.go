package model

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound marks a missing year, month or sample.
	ErrNotFound = errors.New("not found")
	// ErrNotReady is returned while the catalog has not been initialized.
	ErrNotReady = errors.New("monthly predictions not initialized")
	// ErrInvalidInput marks a malformed request parameter.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnavailable is returned by optional features that are not configured.
	ErrUnavailable = errors.New("feature not configured")
)

// messageError carries a caller-facing message and matches its kind.
type messageError struct {
	msg  string
	kind error
}

func (e messageError) Error() string {
	return e.msg
}

func (e messageError) Is(target error) bool {
	return target == e.kind
}

// NotFoundf formats an error that satisfies errors.Is(err, ErrNotFound).
func NotFoundf(format string, args ...any) error {
	return messageError{msg: fmt.Sprintf(format, args...), kind: ErrNotFound}
}

// InvalidInputf formats an error that satisfies errors.Is(err, ErrInvalidInput).
func InvalidInputf(format string, args ...any) error {
	return messageError{msg: fmt.Sprintf(format, args...), kind: ErrInvalidInput}
}
