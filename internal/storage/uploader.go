package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"surveysync/internal/config"
	"surveysync/internal/logger"
	"surveysync/internal/models"
)

// fallbackTimeFormat is second-precision and sorts lexicographically.
const fallbackTimeFormat = "2006-01-02_15-04-05"

// Uploader writes merged CSV output to the object store, overwriting
// the configured object when it already exists.
type Uploader struct {
	store  Store
	bucket string
	logger *logger.Logger
	now    func() time.Time
}

// NewUploader creates an uploader backed by the configured bucket.
func NewUploader(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Uploader, error) {
	store, err := NewGCSStore(ctx, cfg.Exporter.Storage.Bucket, cfg.Exporter.Storage.CredentialsFile, log)
	if err != nil {
		return nil, err
	}

	return &Uploader{
		store:  store,
		bucket: cfg.Exporter.Storage.Bucket,
		logger: log,
		now:    time.Now,
	}, nil
}

// NewUploaderWithStore creates an uploader with a custom store (useful
// for testing).
func NewUploaderWithStore(store Store, bucket string, log *logger.Logger) *Uploader {
	return &Uploader{
		store:  store,
		bucket: bucket,
		logger: log,
		now:    time.Now,
	}
}

// Close releases the underlying store when it holds a real client.
func (u *Uploader) Close() error {
	if s, ok := u.store.(*GCSStore); ok {
		return s.Close()
	}

	return nil
}

// Upload writes data under objectName. A missing object is created, an
// existing one is replaced in place, and a replace refused for lack of
// permission falls back to creating a timestamped sibling object.
//
// The lookup and the write are separate calls: another writer can
// create or delete the object in between, and the later write wins.
func (u *Uploader) Upload(ctx context.Context, objectName string, data []byte) (*models.UploadResult, error) {
	result := &models.UploadResult{
		Bucket:     u.bucket,
		ObjectName: objectName,
		Bytes:      len(data),
	}

	exists, err := u.store.FindByName(ctx, objectName)
	if err != nil {
		return nil, fmt.Errorf("failed to look up destination: %w", err)
	}

	if !exists {
		if err := u.store.CreateFile(ctx, objectName, data); err != nil {
			return nil, fmt.Errorf("failed to create object: %w", err)
		}

		result.Created = true

		return result, nil
	}

	err = u.store.ReplaceContent(ctx, objectName, data)
	if err == nil {
		result.Replaced = true

		return result, nil
	}

	if !IsPermissionDenied(err) {
		return nil, fmt.Errorf("failed to replace object: %w", err)
	}

	fallback := FallbackName(objectName, u.now())

	if u.logger != nil {
		u.logger.Warn(fmt.Sprintf("Replace of %s denied, creating %s instead", objectName, fallback))
	}

	if err := u.store.CreateFile(ctx, fallback, data); err != nil {
		return nil, fmt.Errorf("failed to create fallback object: %w", err)
	}

	result.ObjectName = fallback
	result.Created = true
	result.Fallback = true

	return result, nil
}

// FallbackName derives the timestamped object name used when the
// primary object cannot be replaced.
func FallbackName(objectName string, t time.Time) string {
	base := objectName
	if strings.HasSuffix(strings.ToLower(base), ".csv") {
		base = base[:len(base)-len(".csv")]
	}

	return fmt.Sprintf("%s_%s.csv", base, t.Format(fallbackTimeFormat))
}
