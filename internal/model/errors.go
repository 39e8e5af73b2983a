package model

import "errors"

var (
	// Session related errors
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrInvalidTransition  = errors.New("invalid session transition")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenRejected      = errors.New("token rejected")

	// Catalog related errors
	ErrClassNotFound = errors.New("class not found")

	// Backend payload errors
	ErrMalformedResponse = errors.New("malformed response")

	// Checkout related errors
	ErrPreferenceMissing = errors.New("no preference id returned")

	// Media related errors
	ErrMediaHostNotAllowed = errors.New("media host not allowed")
	ErrUnsupportedMedia    = errors.New("unsupported media type")

	// Generic errors
	ErrInvalidInput = errors.New("invalid input")
)
