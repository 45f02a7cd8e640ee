package errors

import "errors"

var (
	ErrInvalidRequest    = errors.New("invalid request")
	ErrTokenNotFound     = errors.New("token not registered")
	ErrTokenAlreadyBound = errors.New("token id already registered")
	ErrNotOwner          = errors.New("account is not the token owner")
	ErrAdminRequired     = errors.New("administrator privilege required")
)
