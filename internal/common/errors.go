// Package common defines shared constants and sentinel errors used across
// client and server layers of daybook. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Local store errors. A failed local write breaks offline-first
	// durability and must surface to the caller.
	ErrStorageUnavailable = errors.New("local storage unavailable")

	// Remote delivery classification.
	ErrUnavailable = errors.New("server unavailable")
	ErrRejected    = errors.New("rejected by server")

	// Service-level errors.
	ErrInternal     = errors.New("internal error")
	ErrUnauthorized = errors.New("unauthorized")
	ErrConflict     = errors.New("conflict")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
