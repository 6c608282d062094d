package apperrors

import (
	"errors"
)

var (
	// Callback validation errors
	// State is compared first, so a request carrying both problems is still a state error
	ErrStateMismatch = errors.New("state does not match the one bound to the session")
	ErrMissingParams = errors.New("required callback parameters are missing")

	ErrSellerNotFound = errors.New("seller not found")

	// Provider answered 200 but the refresh_token field is absent or empty
	ErrNoRefreshToken = errors.New("token response contains no refresh token")

	ErrSessionValueNotFound = errors.New("session value not found")
)
