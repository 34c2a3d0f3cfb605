package payment

import "errors"

var (
	// ErrValidation marks missing or malformed user input. No state changes.
	ErrValidation = errors.New("payment: validation failed")
	// ErrCancelled is returned when the user abandons a flow.
	ErrCancelled = errors.New("Payment cancelled by user")
	// ErrInvalidTransition is returned for a QR action not allowed in the current state.
	ErrInvalidTransition = errors.New("payment: invalid state transition")
	// ErrExpired is returned for QR sessions past their expiry window.
	ErrExpired = errors.New("payment: QR session expired")
	// ErrGateway wraps hosted-checkout failures.
	ErrGateway = errors.New("payment: gateway failure")
	// ErrSessionNotFound is returned for unknown QR sessions or checkout orders.
	ErrSessionNotFound = errors.New("payment: session not found")
	// ErrUnsupportedMethod is returned when no adapter handles a method.
	ErrUnsupportedMethod = errors.New("payment: unsupported method")
)
