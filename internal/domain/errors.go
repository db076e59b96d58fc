package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrPasswordMismatch   = errors.New("password confirmation mismatch")
	ErrNoSession          = errors.New("no active session")
	ErrNoRoute            = errors.New("no route found")
)
