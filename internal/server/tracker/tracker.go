// Package tracker answers "are all copies of this object consistent?".
//
// Status works from the fingerprints recorded at write time and touches no
// backend. Verify re-reads every backend and recomputes fingerprints, which
// additionally catches silent remote corruption at the cost of one round
// trip per backend.
package tracker

import (
	"context"

	"github.com/dpetrovs/trimirror/internal/fingerprint"
	"github.com/dpetrovs/trimirror/internal/logging"
	"github.com/dpetrovs/trimirror/internal/server/models"
	"github.com/dpetrovs/trimirror/internal/server/repositories/records"
	"github.com/dpetrovs/trimirror/internal/server/storage"
)

// Tracker derives consistency reports from the latest replication record of
// an object key. It owns the record store; the orchestrator appends through
// Record, queries read through Status and Verify.
type Tracker struct {
	repo     records.Repository
	backends []storage.Backend
	logger   logging.Logger
}

func New(repo records.Repository, backends []storage.Backend, logger logging.Logger) *Tracker {
	return &Tracker{repo: repo, backends: backends, logger: logger}
}

// Record durably appends a replication record.
func (t *Tracker) Record(ctx context.Context, rec *models.ReplicationRecord) error {
	return t.repo.Append(ctx, rec)
}

// History returns all replication records for the object key, newest first.
func (t *Tracker) History(ctx context.Context, objectKey string) ([]*models.ReplicationRecord, error) {
	return t.repo.ListByKey(ctx, objectKey)
}

// Status reports consistency from the stored fingerprints of the latest
// record. Every configured backend must have a successful result whose
// fingerprint matches the source fingerprint; a missing, failed, or
// mismatched backend marks the object inconsistent.
//
// Returns common.ErrorNotFound when the key was never replicated.
func (t *Tracker) Status(ctx context.Context, objectKey string) (*models.ConsistencyStatus, error) {
	rec, err := t.repo.LatestByKey(ctx, objectKey)
	if err != nil {
		return nil, err
	}

	status := &models.ConsistencyStatus{ObjectKey: objectKey, Mismatches: []string{}}
	for _, b := range t.backends {
		res := rec.Result(b.Name())
		if res == nil || !res.OK || !fingerprint.Equal(res.Fingerprint, rec.SourceFingerprint) {
			status.Mismatches = append(status.Mismatches, b.Name())
		}
	}
	status.Consistent = len(status.Mismatches) == 0
	return status, nil
}

// Verify re-reads the object from every backend, recomputes the fingerprint
// of the retrieved bytes, and compares it against the source fingerprint of
// the latest record. An unreachable or empty backend is reported as a
// mismatch; it never fails the query.
//
// Returns common.ErrorNotFound when the key was never replicated.
func (t *Tracker) Verify(ctx context.Context, objectKey string) (*models.ConsistencyStatus, error) {
	rec, err := t.repo.LatestByKey(ctx, objectKey)
	if err != nil {
		return nil, err
	}

	status := &models.ConsistencyStatus{ObjectKey: objectKey, Mismatches: []string{}}
	for _, b := range t.backends {
		data, err := b.Get(ctx, objectKey)
		if err != nil {
			t.logger.Warn(ctx, "verify: backend read failed",
				"backend", b.Name(), "object_key", objectKey, "error", err.Error())
			status.Mismatches = append(status.Mismatches, b.Name())
			continue
		}
		if !fingerprint.Equal(fingerprint.Sum(data), rec.SourceFingerprint) {
			status.Mismatches = append(status.Mismatches, b.Name())
		}
	}
	status.Consistent = len(status.Mismatches) == 0
	return status, nil
}
