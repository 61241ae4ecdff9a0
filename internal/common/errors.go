// Package common defines shared constants and sentinel errors used across
// trimirror components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Envelope encryption errors. ErrEncryption is fatal to the replicate
	// call that hit it; ErrDecryption is fatal to that decrypt call only.
	ErrEncryption = errors.New("encryption failed")
	ErrDecryption = errors.New("decryption failed")

	// Per-backend errors. Recorded on the BackendResult, never raised
	// past the storage adapter boundary.
	ErrBackendUnavailable = errors.New("backend unavailable")
	ErrTimeout            = errors.New("timeout")

	// Configuration errors.
	ErrNoMasterKey      = errors.New("no master key configured")
	ErrInvalidMasterKey = errors.New("invalid master key")
)
