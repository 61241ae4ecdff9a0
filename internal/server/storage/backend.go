// Package storage defines the uniform capability set over the configured
// object-storage backends and its concrete implementations (S3, Azure Blob,
// Google Cloud Storage, and an in-memory backend for tests).
//
// Adapters never raise transport failures past this boundary on writes: Put
// absorbs every error into the returned BackendResult so that one failing
// backend can never abort a fan-out.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/dpetrovs/trimirror/internal/common"
	"github.com/dpetrovs/trimirror/internal/fingerprint"
	"github.com/dpetrovs/trimirror/internal/server/models"
)

// Backend is one concrete object-storage system behind the uniform adapter
// contract. Each implementation additionally negotiates its own server-side
// encryption at rest, independent of the application-level envelope.
type Backend interface {
	// Name returns the stable backend identity used in records and reports.
	Name() string

	// Put stores data under key and reports the outcome, including the
	// fingerprint of the bytes sent. Errors are absorbed into the result.
	Put(ctx context.Context, key string, data []byte) models.BackendResult

	// Get returns the stored bytes for key, common.ErrorNotFound when the
	// key is absent, or an error wrapping common.ErrBackendUnavailable.
	Get(ctx context.Context, key string) ([]byte, error)

	// Stat describes the stored object, including the at-rest encryption
	// the backend applies. A missing key is not an error.
	Stat(ctx context.Context, key string) (models.ObjectInfo, error)

	// EnsureBucket creates the backing bucket/container if needed.
	EnsureBucket(ctx context.Context) error
}

// putResult classifies the outcome of a backend write. On success the
// fingerprint of the transmitted bytes is recorded for later comparison
// against the source fingerprint.
func putResult(name string, data []byte, start time.Time, err error) models.BackendResult {
	res := models.BackendResult{Backend: name, Latency: time.Since(start)}
	if err != nil {
		res.Error = failureReason(err)
		return res
	}
	res.OK = true
	res.Fingerprint = fingerprint.Sum(data)
	return res
}

// failureReason normalizes deadline expiry to the timeout reason so results
// are comparable across backends with different SDK error texts.
func failureReason(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return common.ErrTimeout.Error()
	}
	return err.Error()
}
