package apierror

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindTransport Kind = "transport"
	KindStatus    Kind = "status"
	KindMalformed Kind = "malformed"
	KindAuth      Kind = "auth"
	KindNotFound  Kind = "not_found"
	KindInvalid   Kind = "invalid"
)

type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
	HTTPStatus int    `json:"-"`
	Kind       Kind   `json:"-"`
	Cause      error  `json:"-"`
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}

	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}

	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func New(code string, message string, details string, status int) *APIError {
	return &APIError{Code: code, Message: message, Details: details, HTTPStatus: status}
}

// Wrap builds an APIError of the given kind that keeps cause reachable through errors.Is/As.
func Wrap(kind Kind, code string, message string, status int, cause error) *APIError {
	return &APIError{Code: code, Message: message, HTTPStatus: status, Kind: kind, Cause: cause}
}

func (e *APIError) WithDetails(details string) *APIError {
	e.Details = details
	return e
}

// KindOf returns the kind of the first APIError in err's chain, or "" if none.
func KindOf(err error) Kind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return ""
}

// MessageOf returns the user-facing message of the first APIError in err's chain.
func MessageOf(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
