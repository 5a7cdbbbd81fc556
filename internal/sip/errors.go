package sip

import "errors"

// Error kinds returned by the service layer. Callers should test with errors.Is;
// the returned errors wrap these with context.
var (
	// ErrInvalidAmount is returned for a non-positive intake amount.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidGoal is returned for a non-positive goal on an explicit goal change.
	ErrInvalidGoal = errors.New("invalid goal")

	// ErrNotFound is returned when an intake event or snapshot does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden is returned when a user touches data that belongs to someone else.
	ErrForbidden = errors.New("forbidden")

	// ErrMalformedDate is returned for date or timestamp strings that cannot be parsed.
	ErrMalformedDate = errors.New("malformed date")

	// ErrStorageUnavailable wraps every failure reported by the storage layer.
	// The service does not retry these.
	ErrStorageUnavailable = errors.New("storage unavailable")
)
