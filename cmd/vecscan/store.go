package main

import (
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/hupe1980/vecscan/blobstore"
	badgerstore "github.com/hupe1980/vecscan/blobstore/badger"
	miniostore "github.com/hupe1980/vecscan/blobstore/minio"
	s3store "github.com/hupe1980/vecscan/blobstore/s3"
	sqlitestore "github.com/hupe1980/vecscan/blobstore/sqlite"
)

// openStore opens the configured backend. The returned close function must
// be called when the store is no longer needed.
func openStore(ctx context.Context, cfg StoreConfig) (blobstore.Store, func() error, error) {
	noop := func() error { return nil }

	var (
		store   blobstore.Store
		closeFn = noop
	)

	switch cfg.Backend {
	case "local":
		store = blobstore.NewLocalStore(cfg.Path)
	case "memory":
		store = blobstore.NewMemoryStore()
	case "s3":
		optFns := []s3store.Option{s3store.WithRegion(cfg.Region)}
		if cfg.Endpoint != "" {
			optFns = append(optFns, s3store.WithEndpoint(cfg.Endpoint))
		}
		s, err := s3store.New(ctx, cfg.Bucket, optFns...)
		if err != nil {
			return nil, noop, fmt.Errorf("open s3 store: %w", err)
		}
		store = s
	case "minio":
		client, err := minio.New(cfg.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
			Secure: cfg.UseSSL,
			Region: cfg.Region,
		})
		if err != nil {
			return nil, noop, fmt.Errorf("open minio store: %w", err)
		}
		store = miniostore.NewStore(client, cfg.Bucket)
	case "badger":
		s, err := badgerstore.Open(badgerstore.Options{Dir: cfg.Path})
		if err != nil {
			return nil, noop, err
		}
		store, closeFn = s, s.Close
	case "sqlite":
		s, err := sqlitestore.Open(ctx, cfg.Path)
		if err != nil {
			return nil, noop, err
		}
		store, closeFn = s, s.Close
	default:
		return nil, noop, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}

	return blobstore.WithPrefix(store, cfg.Prefix), closeFn, nil
}
