package services

import "errors"

// Sentinel errors surfaced to the HTTP layer. The central error handler in
// middlewares maps these to status codes; everything else is a 500.
var (
	ErrNotFound            = errors.New("record not found")
	ErrNoAgentsAvailable   = errors.New("no active delivery agents available")
	ErrRoutesExist         = errors.New("routes already generated for this date")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrOTPExpired          = errors.New("otp expired or not requested")
	ErrOTPAttemptsExceeded = errors.New("otp attempts exceeded")
	ErrOTPMismatch         = errors.New("otp does not match")
)
