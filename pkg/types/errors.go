package types

import "errors"

var (
	ErrItemNotFound         = errors.New("item not found")
	ErrClaimNotFound        = errors.New("claim not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrNotificationNotFound = errors.New("notification not found")

	// ErrInvalidID marks a malformed identifier before any store lookup.
	ErrInvalidID = errors.New("invalid identifier")

	// ErrUnauthorized marks a caller lacking the required role.
	ErrUnauthorized = errors.New("not authorized")

	// ErrValidation marks a malformed or missing required field.
	ErrValidation = errors.New("validation failed")

	// ErrConflict marks an illegal status transition, including a guarded
	// update that observed a different status than expected.
	ErrConflict = errors.New("conflicting state")
)
