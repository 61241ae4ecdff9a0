package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"

	"github.com/dpetrovs/trimirror/internal/common"
	"github.com/dpetrovs/trimirror/internal/server/models"
)

// AzureConfig holds the settings for the Azure Blob backend. ServiceURL may
// point at Azurite; when empty the standard account endpoint is used.
type AzureConfig struct {
	AccountName string
	AccountKey  string
	ServiceURL  string
	Container   string
}

// AzureBackend stores objects as block blobs. The storage service encrypts
// every blob at rest with service-managed keys; Stat surfaces that.
type AzureBackend struct {
	client    *azblob.Client
	container string
}

func NewAzureBackend(cfg AzureConfig) (*AzureBackend, error) {
	cred, err := azblob.NewSharedKeyCredential(cfg.AccountName, cfg.AccountKey)
	if err != nil {
		return nil, fmt.Errorf("azure credential: %w", err)
	}

	serviceURL := cfg.ServiceURL
	if serviceURL == "" {
		serviceURL = fmt.Sprintf("https://%s.blob.core.windows.net/", cfg.AccountName)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("azure client: %w", err)
	}

	return &AzureBackend{client: client, container: cfg.Container}, nil
}

func (b *AzureBackend) Name() string { return "azure" }

func (b *AzureBackend) Put(ctx context.Context, key string, data []byte) models.BackendResult {
	start := time.Now()
	_, err := b.client.UploadBuffer(ctx, b.container, key, data, nil)
	return putResult(b.Name(), data, start, err)
}

func (b *AzureBackend) Get(ctx context.Context, key string) ([]byte, error) {
	resp, err := b.client.DownloadStream(ctx, b.container, key, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("%w: azure: %v", common.ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

func (b *AzureBackend) Stat(ctx context.Context, key string) (models.ObjectInfo, error) {
	blobClient := b.client.ServiceClient().NewContainerClient(b.container).NewBlobClient(key)

	props, err := blobClient.GetProperties(ctx, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
			return models.ObjectInfo{Exists: false}, nil
		}
		return models.ObjectInfo{}, fmt.Errorf("%w: azure: %v", common.ErrBackendUnavailable, err)
	}

	info := models.ObjectInfo{Exists: true}
	if props.ContentLength != nil {
		info.Size = *props.ContentLength
	}
	if props.IsServerEncrypted != nil && *props.IsServerEncrypted {
		info.RemoteEncryption = "SSE (service-managed key)"
	}
	return info, nil
}

func (b *AzureBackend) EnsureBucket(ctx context.Context) error {
	_, err := b.client.CreateContainer(ctx, b.container, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
			return nil
		}
		return fmt.Errorf("azure create container: %w", err)
	}
	return nil
}
