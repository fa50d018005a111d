package sitekit

import "github.com/kailas-cloud/sitekit/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound        = domain.ErrNotFound
	ErrInvalidItem     = domain.ErrInvalidItem
	ErrBatchTooLarge   = domain.ErrBatchTooLarge
	ErrUnknownCategory = domain.ErrUnknownCategory
	ErrSecretNotFound  = domain.ErrSecretNotFound
)
