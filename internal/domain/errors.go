package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors used across package boundaries.
var (
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidConfig      = errors.New("invalid configuration")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrInvalidToken       = errors.New("invalid token")
)

// ArgumentError reports a missing or invalid constructor argument.
// Err defaults to ErrInvalidArgument when nil.
type ArgumentError struct {
	Param  string
	Reason string
	Err    error
}

func (e *ArgumentError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%v: %s", e.Unwrap(), e.Param)
	}
	return fmt.Sprintf("%v: %s: %s", e.Unwrap(), e.Param, e.Reason)
}

func (e *ArgumentError) Unwrap() error {
	if e.Err == nil {
		return ErrInvalidArgument
	}
	return e.Err
}

// MissingArgument is shorthand for a nil collaborator.
func MissingArgument(param string) *ArgumentError {
	return &ArgumentError{Param: param, Reason: "must not be nil"}
}
