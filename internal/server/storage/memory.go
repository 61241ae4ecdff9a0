package storage

import (
	"context"
	"sync"
	"time"

	"github.com/dpetrovs/trimirror/internal/common"
	"github.com/dpetrovs/trimirror/internal/server/models"
)

// MemoryBackend is a map-backed Backend used in tests and local runs. It can
// be told to fail, block until the caller's deadline fires, or silently
// corrupt a stored object, to exercise the failure paths of the orchestrator
// and the tracker.
type MemoryBackend struct {
	name string

	mu      sync.RWMutex
	objects map[string][]byte

	putErr    error
	getErr    error
	blockPuts bool
}

func NewMemoryBackend(name string) *MemoryBackend {
	return &MemoryBackend{
		name:    name,
		objects: make(map[string][]byte),
	}
}

func (b *MemoryBackend) Name() string { return b.name }

// FailPuts makes every subsequent Put report err. Pass nil to heal.
func (b *MemoryBackend) FailPuts(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.putErr = err
}

// FailGets makes every subsequent Get return err. Pass nil to heal.
func (b *MemoryBackend) FailGets(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.getErr = err
}

// BlockPuts makes every subsequent Put hang until the call's context is done,
// simulating an unresponsive backend.
func (b *MemoryBackend) BlockPuts() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.blockPuts = true
}

// Corrupt flips one bit of the stored object, simulating silent remote
// corruption that only a verify round trip can detect.
func (b *MemoryBackend) Corrupt(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if data, ok := b.objects[key]; ok && len(data) > 0 {
		mutated := make([]byte, len(data))
		copy(mutated, data)
		mutated[len(mutated)/2] ^= 0x01
		b.objects[key] = mutated
	}
}

func (b *MemoryBackend) Put(ctx context.Context, key string, data []byte) models.BackendResult {
	start := time.Now()

	b.mu.RLock()
	blocked := b.blockPuts
	failure := b.putErr
	b.mu.RUnlock()

	if blocked {
		<-ctx.Done()
		return putResult(b.name, data, start, ctx.Err())
	}
	if failure != nil {
		return putResult(b.name, data, start, failure)
	}

	stored := make([]byte, len(data))
	copy(stored, data)

	b.mu.Lock()
	b.objects[key] = stored
	b.mu.Unlock()

	return putResult(b.name, data, start, nil)
}

func (b *MemoryBackend) Get(ctx context.Context, key string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.getErr != nil {
		return nil, b.getErr
	}
	data, ok := b.objects[key]
	if !ok {
		return nil, common.ErrorNotFound
	}

	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (b *MemoryBackend) Stat(ctx context.Context, key string) (models.ObjectInfo, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.getErr != nil {
		return models.ObjectInfo{}, b.getErr
	}
	data, ok := b.objects[key]
	if !ok {
		return models.ObjectInfo{Exists: false}, nil
	}
	return models.ObjectInfo{
		Exists:           true,
		Size:             int64(len(data)),
		RemoteEncryption: "in-memory (none)",
	}, nil
}

func (b *MemoryBackend) EnsureBucket(ctx context.Context) error { return nil }
