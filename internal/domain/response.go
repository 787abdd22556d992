package domain

import (
	"fmt"
	"time"
)

// ErrorResponse is the canonical JSON error envelope returned for every
// failed request. The HTTP status travels on the response, not in the body.
type ErrorResponse struct {
	ErrorCode       int          `json:"errorCode"`
	ErrorDetails    string       `json:"errorDetails"`
	ErrorMessage    string       `json:"errorMessage,omitempty"`
	InnerExceptions []InnerError `json:"innerExceptions,omitempty"`
}

// InnerError describes one error in the envelope's innerExceptions list.
type InnerError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Describe renders err for innerExceptions. Only err itself is described;
// its causes are already part of err.Error().
func Describe(err error) InnerError {
	return InnerError{
		Type:    fmt.Sprintf("%T", err),
		Message: err.Error(),
	}
}

// AccessToken is returned by token issuance.
type AccessToken struct {
	AccessToken string `json:"accessToken"`
	// ExpiresIn is the token lifetime in minutes.
	ExpiresIn int       `json:"expiresIn"`
	ExpiresAt time.Time `json:"-"`
}
