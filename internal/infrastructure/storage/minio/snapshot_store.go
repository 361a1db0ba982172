package minio

import (
	"context"
	"os"
	"path/filepath"

	"github.com/minio/minio-go/v7"

	"github.com/lexintel/LexTriage/internal/infrastructure/monitoring/logging"
	"github.com/lexintel/LexTriage/pkg/errors"
)

const snapshotContentType = "application/json"

// SnapshotStore pushes and pulls index snapshot files to the snapshot
// bucket.  The local snapshot file written by the index package is the unit
// of exchange; this store never inspects its contents.
type SnapshotStore struct {
	client *Client
	logger logging.Logger
}

// NewSnapshotStore returns a store backed by the given client.
func NewSnapshotStore(client *Client, logger logging.Logger) *SnapshotStore {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &SnapshotStore{client: client, logger: logger.Named("snapshot_store")}
}

// Upload copies the local snapshot file at path into the bucket under name.
func (s *SnapshotStore) Upload(ctx context.Context, name, path string) error {
	info, err := s.client.api.FPutObject(ctx, s.client.bucket, name, path, minio.PutObjectOptions{
		ContentType: snapshotContentType,
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageError, "minio: snapshot upload failed")
	}
	s.logger.Info("snapshot uploaded",
		logging.String("object", name),
		logging.Int64("bytes", info.Size))
	return nil
}

// Download fetches the snapshot object into path.  The SDK downloads to a
// temp file and renames, so a partial transfer never clobbers an existing
// snapshot.  A missing object maps to ErrCodeNotFound so callers can fall
// back to a full rebuild.
func (s *SnapshotStore) Download(ctx context.Context, name, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, errors.ErrCodeStorageError, "minio: snapshot dir create failed")
		}
	}

	err := s.client.api.FGetObject(ctx, s.client.bucket, name, path, minio.GetObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return errors.Newf(errors.ErrCodeNotFound, "minio: snapshot %q not found", name)
		}
		return errors.Wrap(err, errors.ErrCodeStorageError, "minio: snapshot download failed")
	}
	s.logger.Info("snapshot downloaded", logging.String("object", name), logging.String("path", path))
	return nil
}

// Exists reports whether a snapshot object is present.
func (s *SnapshotStore) Exists(ctx context.Context, name string) (bool, error) {
	_, err := s.client.api.StatObject(ctx, s.client.bucket, name, minio.StatObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return false, nil
		}
		return false, errors.Wrap(err, errors.ErrCodeStorageError, "minio: snapshot stat failed")
	}
	return true, nil
}

// Remove deletes a snapshot object.  Removing a missing object is not an
// error.
func (s *SnapshotStore) Remove(ctx context.Context, name string) error {
	if err := s.client.api.RemoveObject(ctx, s.client.bucket, name, minio.RemoveObjectOptions{}); err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageError, "minio: snapshot remove failed")
	}
	return nil
}

func isNoSuchKey(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket"
}
