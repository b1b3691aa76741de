package payments

import "errors"

var (
	ErrTokenInvalid    = errors.New("payment token is not valid")
	ErrTokenNotFound   = errors.New("payment token not found")
	ErrSessionNotFound = errors.New("checkout session not found")
	ErrInvalidEmail    = errors.New("invalid email address")
)
