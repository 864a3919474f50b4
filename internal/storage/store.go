// Package storage places serialized survey tables in the cloud object
// store.
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"surveysync/internal/logger"
)

// Store defines the interface for the destination object store.
type Store interface {
	FindByName(ctx context.Context, name string) (bool, error)
	ReplaceContent(ctx context.Context, name string, data []byte) error
	CreateFile(ctx context.Context, name string, data []byte) error
}

// Ensure GCSStore implements Store.
var _ Store = (*GCSStore)(nil)

// GCSStore talks to one Google Cloud Storage bucket.
type GCSStore struct {
	client *storage.Client
	bucket string
	logger *logger.Logger
}

// NewGCSStore opens a storage client against the given bucket. The
// credentials file is optional; without one the client resolves
// ambient credentials.
func NewGCSStore(ctx context.Context, bucket, credentialsFile string, log *logger.Logger) (*GCSStore, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return &GCSStore{
		client: client,
		bucket: bucket,
		logger: log,
	}, nil
}

// Close releases the underlying client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}

// FindByName reports whether an object with this name exists in the
// bucket.
func (s *GCSStore) FindByName(ctx context.Context, name string) (bool, error) {
	_, err := s.client.Bucket(s.bucket).Object(name).Attrs(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("failed to look up object %s: %w", name, err)
	}

	return true, nil
}

// ReplaceContent overwrites the content of an existing object.
func (s *GCSStore) ReplaceContent(ctx context.Context, name string, data []byte) error {
	return s.write(ctx, name, data)
}

// CreateFile writes a new object.
func (s *GCSStore) CreateFile(ctx context.Context, name string, data []byte) error {
	return s.write(ctx, name, data)
}

func (s *GCSStore) write(ctx context.Context, name string, data []byte) error {
	w := s.client.Bucket(s.bucket).Object(name).NewWriter(ctx)
	w.ContentType = "text/csv"

	if _, err := w.Write(data); err != nil {
		_ = w.Close()

		return fmt.Errorf("failed to write object %s: %w", name, err)
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finalize object %s: %w", name, err)
	}

	if s.logger != nil {
		s.logger.Debug(fmt.Sprintf("Wrote gs://%s/%s (%d bytes)", s.bucket, name, len(data)))
	}

	return nil
}

// IsPermissionDenied reports whether err is the storage service
// refusing an operation for lack of permission.
func IsPermissionDenied(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusForbidden
	}

	return false
}
