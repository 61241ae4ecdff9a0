package records

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpetrovs/trimirror/internal/common"
	"github.com/dpetrovs/trimirror/internal/server/models"
)

func TestInMemory_AppendAndLatest(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	first := &models.ReplicationRecord{
		ID:        "r1",
		ObjectKey: "file_001.txt",
		CreatedAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
	second := &models.ReplicationRecord{
		ID:        "r2",
		ObjectKey: "file_001.txt",
		CreatedAt: time.Date(2024, 5, 1, 11, 0, 0, 0, time.UTC),
	}

	require.NoError(t, repo.Append(ctx, first))
	require.NoError(t, repo.Append(ctx, second))

	latest, err := repo.LatestByKey(ctx, "file_001.txt")
	require.NoError(t, err)
	assert.Equal(t, "r2", latest.ID)

	history, err := repo.ListByKey(ctx, "file_001.txt")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "r2", history[0].ID, "newest first")
}

func TestInMemory_LatestMissingKey(t *testing.T) {
	repo := NewInMemoryRepository()

	_, err := repo.LatestByKey(context.Background(), "absent")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestInMemory_AppendCopiesRecord(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	rec := &models.ReplicationRecord{
		ID:        "r1",
		ObjectKey: "k",
		Results:   []models.BackendResult{{Backend: "s3", OK: true}},
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.Append(ctx, rec))

	// mutating the caller's copy must not leak into the stored record
	rec.Results[0].OK = false

	stored, err := repo.LatestByKey(ctx, "k")
	require.NoError(t, err)
	assert.True(t, stored.Results[0].OK)
}

func TestInMemory_ConcurrentAppends(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = repo.Append(ctx, &models.ReplicationRecord{
				ID:        fmt.Sprintf("r%d", i),
				ObjectKey: "k",
				CreatedAt: time.Now().UTC(),
			})
		}(i)
	}
	wg.Wait()

	history, err := repo.ListByKey(ctx, "k")
	require.NoError(t, err)
	assert.Len(t, history, 20)
}
