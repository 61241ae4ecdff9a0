package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpetrovs/trimirror/internal/common"
	"github.com/dpetrovs/trimirror/internal/fingerprint"
)

func TestMemoryBackend_PutGetStat(t *testing.T) {
	b := NewMemoryBackend("mem")
	ctx := context.Background()
	data := []byte("envelope bytes")

	res := b.Put(ctx, "k1", data)
	require.True(t, res.OK)
	assert.Equal(t, "mem", res.Backend)
	assert.Equal(t, fingerprint.Sum(data), res.Fingerprint)
	assert.Empty(t, res.Error)

	got, err := b.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, data, got)

	info, err := b.Stat(ctx, "k1")
	require.NoError(t, err)
	assert.True(t, info.Exists)
	assert.Equal(t, int64(len(data)), info.Size)
}

func TestMemoryBackend_GetMissingKey(t *testing.T) {
	b := NewMemoryBackend("mem")

	_, err := b.Get(context.Background(), "absent")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	info, err := b.Stat(context.Background(), "absent")
	require.NoError(t, err)
	assert.False(t, info.Exists)
}

func TestMemoryBackend_FailPuts(t *testing.T) {
	b := NewMemoryBackend("mem")
	b.FailPuts(errors.New("disk full"))

	res := b.Put(context.Background(), "k1", []byte("x"))
	assert.False(t, res.OK)
	assert.Equal(t, "disk full", res.Error)
	assert.Empty(t, res.Fingerprint)

	// a failed put must not store anything
	_, err := b.Get(context.Background(), "k1")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestMemoryBackend_BlockPutsHonorsDeadline(t *testing.T) {
	b := NewMemoryBackend("mem")
	b.BlockPuts()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	res := b.Put(ctx, "k1", []byte("x"))
	assert.False(t, res.OK)
	assert.Equal(t, common.ErrTimeout.Error(), res.Error)
}

func TestMemoryBackend_CorruptChangesFingerprint(t *testing.T) {
	b := NewMemoryBackend("mem")
	data := []byte("pristine bytes")

	res := b.Put(context.Background(), "k1", data)
	require.True(t, res.OK)

	b.Corrupt("k1")

	got, err := b.Get(context.Background(), "k1")
	require.NoError(t, err)
	assert.NotEqual(t, fingerprint.Sum(data), fingerprint.Sum(got))
	assert.Len(t, got, len(data))
}

func TestPutResult_TimeoutNormalization(t *testing.T) {
	res := putResult("b1", []byte("x"), time.Now(), context.DeadlineExceeded)
	assert.False(t, res.OK)
	assert.Equal(t, "timeout", res.Error)

	wrapped := putResult("b1", []byte("x"), time.Now(),
		errors.Join(errors.New("rpc failed"), context.DeadlineExceeded))
	assert.Equal(t, "timeout", wrapped.Error)
}
