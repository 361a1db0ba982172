// Package milvus provides a Milvus-backed case vector index.  It implements
// the same contract as memindex so the retrieval engine can run against
// either backend; memindex stays the default for single-node deployments.
package milvus

import (
	"context"
	"time"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"

	"github.com/lexintel/LexTriage/internal/config"
	"github.com/lexintel/LexTriage/internal/infrastructure/monitoring/logging"
	"github.com/lexintel/LexTriage/pkg/errors"
)

const connectTimeout = 10 * time.Second

// newMilvusClient indirects client construction so tests can install a fake.
var newMilvusClient = client.NewClient

// Client wraps a Milvus SDK connection.
type Client struct {
	mc     client.Client
	logger logging.Logger
}

// NewClient connects to Milvus and verifies the connection.
func NewClient(ctx context.Context, cfg config.MilvusConfig, logger logging.Logger) (*Client, error) {
	if cfg.Addr == "" {
		return nil, errors.New(errors.ErrCodeValidation, "milvus: addr is required")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	dbName := cfg.DBName
	if dbName == "" {
		dbName = "default"
	}

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	mc, err := newMilvusClient(connectCtx, client.Config{
		Address: cfg.Addr,
		DBName:  dbName,
		DialOptions: []grpc.DialOption{
			grpc.WithTransportCredentials(insecure.NewCredentials()),
			grpc.WithKeepaliveParams(keepalive.ClientParameters{
				Time:                60 * time.Second,
				Timeout:             20 * time.Second,
				PermitWithoutStream: true,
			}),
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeServiceUnavailable, "milvus: connection failed")
	}

	logger.Info("milvus connected", logging.String("addr", cfg.Addr), logging.String("db", dbName))
	return &Client{mc: mc, logger: logger.Named("milvus")}, nil
}

// Ping checks cluster health.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.mc.CheckHealth(ctx); err != nil {
		return errors.Wrap(err, errors.ErrCodeServiceUnavailable, "milvus: health check failed")
	}
	return nil
}

// Close releases the connection.
func (c *Client) Close() error {
	if err := c.mc.Close(); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "milvus: close failed")
	}
	return nil
}
