// Package storage provides an abstraction layer for object storage services.
//
// Scan reports can be archived to an S3 compatible bucket. The package wraps
// the MinIO Go client behind the Client interface so that archival can be
// tested against the mock in core/storage/mocks.
//
// # Usage
//
//	client, err := storage.NewClient(cfg.Storage)
//	if errors.Is(err, storage.ErrDisabled) {
//	    // keep reports on the local filesystem only
//	}
//	err = storage.EnsureBucket(ctx, client, cfg.Storage.Bucket, cfg.Storage.Region)
package storage
