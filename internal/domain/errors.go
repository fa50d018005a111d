package domain

import "errors"

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrInvalidItem signals a catalog item that fails validation.
	ErrInvalidItem = errors.New("invalid item")
	// ErrSecretNotFound signals that no secret backend holds the requested name.
	ErrSecretNotFound = errors.New("secret not found")
	// ErrUnknownCategory signals a search category outside the supported set.
	ErrUnknownCategory = errors.New("unknown search category")
	// ErrSuperseded signals a filter apply that lost to a later trigger.
	ErrSuperseded = errors.New("filter superseded by a later search")
	// ErrInvalidEvent signals a page event that cannot be dispatched.
	ErrInvalidEvent = errors.New("invalid page event")
	// ErrBatchTooLarge signals an import batch over the configured limit.
	ErrBatchTooLarge = errors.New("batch too large")
)
