package records

import (
	"context"
	"sync"

	"github.com/dpetrovs/trimirror/internal/common"
	"github.com/dpetrovs/trimirror/internal/server/models"
)

// InMemoryRepository keeps records in process memory. It mirrors the
// PostgresRepository contract and is used in tests and local runs.
type InMemoryRepository struct {
	mu    sync.RWMutex
	byKey map[string][]*models.ReplicationRecord
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{byKey: make(map[string][]*models.ReplicationRecord)}
}

func (r *InMemoryRepository) Append(ctx context.Context, rec *models.ReplicationRecord) error {
	stored := *rec
	stored.Results = make([]models.BackendResult, len(rec.Results))
	copy(stored.Results, rec.Results)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.byKey[rec.ObjectKey] = append(r.byKey[rec.ObjectKey], &stored)
	return nil
}

func (r *InMemoryRepository) LatestByKey(ctx context.Context, objectKey string) (*models.ReplicationRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	history := r.byKey[objectKey]
	if len(history) == 0 {
		return nil, common.ErrorNotFound
	}

	latest := history[0]
	for _, rec := range history[1:] {
		// ties go to the later append, matching insertion order
		if !rec.CreatedAt.Before(latest.CreatedAt) {
			latest = rec
		}
	}

	out := *latest
	return &out, nil
}

func (r *InMemoryRepository) ListByKey(ctx context.Context, objectKey string) ([]*models.ReplicationRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	history := r.byKey[objectKey]
	out := make([]*models.ReplicationRecord, 0, len(history))
	for i := len(history) - 1; i >= 0; i-- {
		rec := *history[i]
		out = append(out, &rec)
	}
	return out, nil
}
