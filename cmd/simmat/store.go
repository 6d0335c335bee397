package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/simmat/blobstore"
	"github.com/hupe1980/simmat/blobstore/minio"
	"github.com/hupe1980/simmat/blobstore/s3"
)

// openStore builds the blob store selected by cfg.
func openStore(ctx context.Context, cfg StoreConfig) (blobstore.BlobStore, error) {
	switch cfg.Type {
	case "local", "":
		if cfg.Path == "" {
			return nil, errors.New("store.path is required for the local store")
		}
		return blobstore.NewLocalStore(cfg.Path), nil
	case "s3":
		if cfg.Bucket == "" {
			return nil, errors.New("store.bucket is required for the s3 store")
		}
		opts := []s3.Option{s3.WithPrefix(cfg.Prefix)}
		if cfg.Region != "" {
			opts = append(opts, s3.WithRegion(cfg.Region))
		}
		if cfg.Endpoint != "" {
			opts = append(opts, s3.WithEndpoint(cfg.Endpoint))
		}
		s, err := s3.New(ctx, cfg.Bucket, opts...)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "minio":
		if cfg.Bucket == "" || cfg.Endpoint == "" {
			return nil, errors.New("store.bucket and store.endpoint are required for the minio store")
		}
		s, err := minio.New(minio.Config{
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			Region:    cfg.Region,
			Secure:    cfg.Secure,
		}, cfg.Bucket, cfg.Prefix)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store type %q", cfg.Type)
	}
}
