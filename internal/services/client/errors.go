package client

import "errors"

// Service errors.
var (
	ErrAlreadyExists = errors.New("document or email already registered")
)
