// Package models holds the persisted and derived data types of the
// replication core.
package models

import "time"

// BackendResult is the outcome of one backend write or read attempt.
// Produced once per backend per replication attempt; immutable after creation.
//
// Fingerprint is the digest of the bytes actually sent over the wire, so the
// tracker can compare it against the record's source fingerprint without
// re-reading the backend.
type BackendResult struct {
	Backend     string        `json:"backend"`
	OK          bool          `json:"ok"`
	Fingerprint string        `json:"fingerprint,omitempty"`
	Error       string        `json:"error,omitempty"`
	Latency     time.Duration `json:"latency"`
}

// ReplicationRecord is the immutable outcome of a single replication attempt
// for one object key. A re-upload of the same key appends a new record;
// records are never mutated, and consistency queries use the most recent
// record for a key.
//
// SourceFingerprint is computed over the envelope bytes transmitted to the
// backends. PayloadFingerprint is the digest of the plaintext before
// encryption, kept for audit.
type ReplicationRecord struct {
	ID                 string          `json:"id"`
	ObjectKey          string          `json:"object_key"`
	PayloadFingerprint string          `json:"payload_fingerprint"`
	SourceFingerprint  string          `json:"source_fingerprint"`
	Results            []BackendResult `json:"results"`
	CreatedAt          time.Time       `json:"created_at"`
}

// Result returns the BackendResult for the named backend, or nil if the
// record holds none for it.
func (r *ReplicationRecord) Result(backend string) *BackendResult {
	for i := range r.Results {
		if r.Results[i].Backend == backend {
			return &r.Results[i]
		}
	}
	return nil
}
