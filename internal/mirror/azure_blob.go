package mirror

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AzureBlobStore implements Store on an Azure Blob container, for
// deployments without a persistent local disk
type AzureBlobStore struct {
	client        *azblob.Client
	containerName string
	logger        *zap.Logger
}

// NewAzureBlobStore creates a blob-backed mirror store
func NewAzureBlobStore(connectionString, containerName string, logger *zap.Logger) (*AzureBlobStore, error) {
	client, err := azblob.NewClientFromConnectionString(connectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create blob client: %w", err)
	}

	// Ensure container exists
	_, err = client.CreateContainer(context.Background(), containerName, nil)
	if err != nil && !strings.Contains(err.Error(), "ContainerAlreadyExists") {
		return nil, fmt.Errorf("failed to create container: %w", err)
	}

	logger.Info("Azure Blob mirror initialized",
		zap.String("container", containerName),
	)

	return &AzureBlobStore{
		client:        client,
		containerName: containerName,
		logger:        logger,
	}, nil
}

func (s *AzureBlobStore) Write(ctx context.Context, id uuid.UUID, name string, config json.RawMessage) error {
	data, err := prettyJSON(config)
	if err != nil {
		return err
	}

	blobName := Filename(id, name)
	_, err = s.client.UploadBuffer(ctx, s.containerName, blobName, data, nil)
	if err != nil {
		return fmt.Errorf("failed to upload mirror blob: %w", err)
	}

	s.logger.Debug("mirror blob written",
		zap.String("blob", blobName),
		zap.String("container", s.containerName),
	)
	return nil
}

func (s *AzureBlobStore) Delete(ctx context.Context, id uuid.UUID, name string) error {
	blobName := Filename(id, name)
	_, err := s.client.DeleteBlob(ctx, s.containerName, blobName, nil)
	if err != nil {
		if strings.Contains(err.Error(), "BlobNotFound") {
			return nil // already absent
		}
		return fmt.Errorf("failed to delete mirror blob: %w", err)
	}
	return nil
}

func (s *AzureBlobStore) List(ctx context.Context) ([]string, error) {
	var names []string
	pager := s.client.NewListBlobsFlatPager(s.containerName, nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list mirror blobs: %w", err)
		}
		for _, item := range page.Segment.BlobItems {
			if item.Name == nil || !strings.HasSuffix(*item.Name, ".json") {
				continue
			}
			names = append(names, *item.Name)
		}
	}
	return names, nil
}

// Remove deletes a mirror blob by its raw filename (reconcile support)
func (s *AzureBlobStore) Remove(ctx context.Context, filename string) error {
	_, err := s.client.DeleteBlob(ctx, s.containerName, filename, nil)
	if err != nil && !strings.Contains(err.Error(), "BlobNotFound") {
		return fmt.Errorf("failed to remove mirror blob: %w", err)
	}
	return nil
}

// Download fetches a mirror blob's content (diagnostics support)
func (s *AzureBlobStore) Download(ctx context.Context, filename string) ([]byte, error) {
	resp, err := s.client.DownloadStream(ctx, s.containerName, filename, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to download mirror blob: %w", err)
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, fmt.Errorf("failed to read mirror blob: %w", err)
	}
	return buf.Bytes(), nil
}
