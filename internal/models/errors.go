package models

import "errors"

// Error taxonomy shared by services and handlers. Store and network
// failures outside this list propagate wrapped, never swallowed.
var (
	// ErrNotFound: the registry returned zero matches for a lookup.
	ErrNotFound = errors.New("meter not found")

	// ErrDuplicateAttach: the (user, serial) pair is already in the cabinet.
	ErrDuplicateAttach = errors.New("meter already attached to this cabinet")

	// ErrUploadFailed: photo upload exhausted its retry budget. The request
	// record must not be written after this.
	ErrUploadFailed = errors.New("photo upload failed after all attempts")

	// ErrInvalidTransition: a request status edge outside the state machine.
	ErrInvalidTransition = errors.New("illegal request status transition")

	// ErrRequestNotFound: no service request with the given id.
	ErrRequestNotFound = errors.New("service request not found")

	// ErrSessionNotFound: unknown or expired session id.
	ErrSessionNotFound = errors.New("session not found")
)
