package services

import "errors"

// Sentinel errors shared by the service layer. Handlers map these onto HTTP
// status codes; everything else is treated as an internal error.
var (
	ErrNotFound          = errors.New("not found")
	ErrNotAuthorized     = errors.New("not authorized")
	ErrInvalidState      = errors.New("invalid state")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInsufficientFunds = errors.New("insufficient funds")
)
