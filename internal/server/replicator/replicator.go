// Package replicator drives a single replication attempt: encrypt the
// payload once, fan the envelope out to every configured backend
// concurrently, and record the aggregated outcome.
package replicator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dpetrovs/trimirror/internal/cryptox"
	"github.com/dpetrovs/trimirror/internal/fingerprint"
	"github.com/dpetrovs/trimirror/internal/logging"
	"github.com/dpetrovs/trimirror/internal/server/models"
	"github.com/dpetrovs/trimirror/internal/server/storage"
	"github.com/dpetrovs/trimirror/internal/server/tracker"
)

// DefaultBackendTimeout bounds each backend write when no timeout is
// configured.
const DefaultBackendTimeout = 30 * time.Second

// Orchestrator replicates objects to a fixed set of backends.
//
// One failing backend never aborts the others: every outcome, success or
// failure, lands in the ReplicationRecord ("best-effort fan-out,
// full-visibility reporting"). The orchestrator never retries; replaying the
// same key simply appends a fresh record.
type Orchestrator struct {
	key      []byte
	backends []storage.Backend
	tracker  *tracker.Tracker
	timeout  time.Duration
	logger   logging.Logger
}

func New(key []byte, backends []storage.Backend, tr *tracker.Tracker, timeout time.Duration, logger logging.Logger) *Orchestrator {
	if timeout <= 0 {
		timeout = DefaultBackendTimeout
	}
	return &Orchestrator{
		key:      key,
		backends: backends,
		tracker:  tr,
		timeout:  timeout,
		logger:   logger,
	}
}

// Replicate encrypts payload and writes the envelope to every configured
// backend, waiting for all writes to complete or time out before returning.
// Results keep the configured backend order regardless of completion order.
//
// Only an encryption failure aborts the call; it happens before any backend
// is touched. A failure to persist the record is returned as an error even
// though backend writes may have succeeded.
func (o *Orchestrator) Replicate(ctx context.Context, objectKey string, payload []byte) (*models.ReplicationRecord, error) {
	payloadFP := fingerprint.Sum(payload)

	env, err := cryptox.Encrypt(payload, o.key)
	if err != nil {
		return nil, fmt.Errorf("replicate %q: %w", objectKey, err)
	}
	data := env.Marshal()
	sourceFP := fingerprint.Sum(data)

	results := make([]models.BackendResult, len(o.backends))

	var wg sync.WaitGroup
	for i, b := range o.backends {
		wg.Add(1)
		go func(i int, b storage.Backend) {
			defer wg.Done()
			// each write owns its own deadline; one slow backend
			// cannot cancel the others
			putCtx, cancel := context.WithTimeout(ctx, o.timeout)
			defer cancel()
			results[i] = b.Put(putCtx, objectKey, data)
		}(i, b)
	}
	wg.Wait()

	rec := &models.ReplicationRecord{
		ID:                 uuid.NewString(),
		ObjectKey:          objectKey,
		PayloadFingerprint: payloadFP,
		SourceFingerprint:  sourceFP,
		Results:            results,
		CreatedAt:          time.Now().UTC(),
	}

	for _, res := range rec.Results {
		if res.OK {
			o.logger.Info(ctx, "backend write ok",
				"object_key", objectKey, "backend", res.Backend, "latency", res.Latency)
		} else {
			o.logger.Warn(ctx, "backend write failed",
				"object_key", objectKey, "backend", res.Backend, "reason", res.Error)
		}
	}

	if err := o.tracker.Record(ctx, rec); err != nil {
		return nil, fmt.Errorf("record replication of %q: %w", objectKey, err)
	}
	return rec, nil
}
