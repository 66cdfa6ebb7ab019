package auth

import "errors"

// Authentication errors by failure mode.
var (
	ErrMissingToken   = errors.New("bearer token required in Authorization header")
	ErrMalformedToken = errors.New("malformed Authorization header")
	ErrInvalidToken   = errors.New("invalid bearer token")
)
