// Package minio stores index snapshots in S3-compatible object storage so a
// fresh node can restore the case embedding index without re-embedding the
// whole corpus.
package minio

import (
	"context"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/lexintel/LexTriage/internal/config"
	"github.com/lexintel/LexTriage/internal/infrastructure/monitoring/logging"
	"github.com/lexintel/LexTriage/pkg/errors"
)

// objectAPI is the slice of the minio SDK the snapshot store uses.  Tests
// substitute a fake.
type objectAPI interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
	FPutObject(ctx context.Context, bucket, object, filePath string, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	FGetObject(ctx context.Context, bucket, object, filePath string, opts minio.GetObjectOptions) error
	StatObject(ctx context.Context, bucket, object string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	RemoveObject(ctx context.Context, bucket, object string, opts minio.RemoveObjectOptions) error
}

// Client wraps a minio connection bound to the snapshot bucket.
type Client struct {
	api    objectAPI
	bucket string
	logger logging.Logger
}

// NewClient connects to the object store and makes sure the snapshot bucket
// exists.
func NewClient(ctx context.Context, cfg config.MinIOConfig, logger logging.Logger) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New(errors.ErrCodeValidation, "minio: endpoint is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New(errors.ErrCodeValidation, "minio: bucket is required")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	api, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorageError, "minio: failed to create client")
	}

	c := &Client{api: api, bucket: cfg.Bucket, logger: logger.Named("minio")}

	ensureCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := c.ensureBucket(ensureCtx); err != nil {
		return nil, err
	}

	logger.Info("minio connected",
		logging.String("endpoint", cfg.Endpoint),
		logging.String("bucket", cfg.Bucket))
	return c, nil
}

func (c *Client) ensureBucket(ctx context.Context) error {
	exists, err := c.api.BucketExists(ctx, c.bucket)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageError, "minio: bucket check failed")
	}
	if exists {
		return nil
	}
	if err := c.api.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{}); err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageError, "minio: bucket create failed")
	}
	c.logger.Info("bucket created", logging.String("bucket", c.bucket))
	return nil
}
