package auth

import "errors"

// Authentication error types
var (
	// ErrInvalidToken indicates the token is malformed or carries an
	// invalid signature.
	ErrInvalidToken = errors.New("invalid token")

	// ErrExpiredToken indicates the token's expiry has passed.
	ErrExpiredToken = errors.New("token expired")

	// ErrTokenNotYetValid indicates the token's validity period has not
	// started.
	ErrTokenNotYetValid = errors.New("token not yet valid")
)
