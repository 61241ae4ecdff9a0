package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	gcs "cloud.google.com/go/storage"

	"github.com/dpetrovs/trimirror/internal/common"
	"github.com/dpetrovs/trimirror/internal/server/models"
)

// GCSConfig holds the settings for the Google Cloud Storage backend.
// Credentials come from Application Default Credentials; a local emulator is
// selected via the STORAGE_EMULATOR_HOST environment variable, which the
// client library honors on its own.
type GCSConfig struct {
	Bucket    string
	ProjectID string
}

// GCSBackend stores objects in a GCS bucket. Google-managed encryption at
// rest applies to every object by default; Stat reports the KMS key when a
// customer-managed key is configured on the bucket.
type GCSBackend struct {
	client    *gcs.Client
	bucket    string
	projectID string
}

func NewGCSBackend(ctx context.Context, cfg GCSConfig) (*GCSBackend, error) {
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("gcs client: %w", err)
	}
	return &GCSBackend{client: client, bucket: cfg.Bucket, projectID: cfg.ProjectID}, nil
}

func (b *GCSBackend) Name() string { return "gcs" }

func (b *GCSBackend) Put(ctx context.Context, key string, data []byte) models.BackendResult {
	start := time.Now()

	w := b.client.Bucket(b.bucket).Object(key).NewWriter(ctx)
	w.ContentType = "application/octet-stream"

	_, err := w.Write(data)
	if err != nil {
		_ = w.Close()
		return putResult(b.Name(), data, start, err)
	}
	// the upload is not durable until Close returns
	return putResult(b.Name(), data, start, w.Close())
}

func (b *GCSBackend) Get(ctx context.Context, key string) ([]byte, error) {
	r, err := b.client.Bucket(b.bucket).Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("%w: gcs: %v", common.ErrBackendUnavailable, err)
	}
	defer r.Close()

	return io.ReadAll(r)
}

func (b *GCSBackend) Stat(ctx context.Context, key string) (models.ObjectInfo, error) {
	attrs, err := b.client.Bucket(b.bucket).Object(key).Attrs(ctx)
	if err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return models.ObjectInfo{Exists: false}, nil
		}
		return models.ObjectInfo{}, fmt.Errorf("%w: gcs: %v", common.ErrBackendUnavailable, err)
	}

	encryption := "Google-managed key"
	if attrs.KMSKeyName != "" {
		encryption = "KMS: " + attrs.KMSKeyName
	}
	return models.ObjectInfo{Exists: true, Size: attrs.Size, RemoteEncryption: encryption}, nil
}

func (b *GCSBackend) EnsureBucket(ctx context.Context) error {
	bkt := b.client.Bucket(b.bucket)

	_, err := bkt.Attrs(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, gcs.ErrBucketNotExist) {
		return fmt.Errorf("gcs bucket attrs: %w", err)
	}

	if err := bkt.Create(ctx, b.projectID, nil); err != nil {
		return fmt.Errorf("gcs create bucket: %w", err)
	}
	return nil
}

// Close releases the underlying client connections.
func (b *GCSBackend) Close() error {
	return b.client.Close()
}
