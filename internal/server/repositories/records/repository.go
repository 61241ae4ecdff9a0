// Package records persists replication records: the append-only,
// per-attempt audit trail that consistency queries are derived from.
package records

import (
	"context"

	"github.com/dpetrovs/trimirror/internal/server/models"
)

// Repository is the durable store of ReplicationRecords. Records are
// appended, never updated or deleted; the latest record per object key
// drives consistency reporting, older ones remain as history.
type Repository interface {
	// Append durably stores a new record. Safe for concurrent use; records
	// are independent immutable units, so concurrent appends for the same
	// key cannot corrupt each other.
	Append(ctx context.Context, rec *models.ReplicationRecord) error

	// LatestByKey returns the most recent record for the object key, or
	// common.ErrorNotFound when the key was never replicated.
	LatestByKey(ctx context.Context, objectKey string) (*models.ReplicationRecord, error)

	// ListByKey returns the full history for the object key, newest first.
	ListByKey(ctx context.Context, objectKey string) ([]*models.ReplicationRecord, error)
}
