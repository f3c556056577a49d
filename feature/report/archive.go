package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"

	"bitrot-detector/core/storage"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// Archiver stores scan reports in an object storage bucket.
type Archiver struct {
	client storage.Client
	bucket string
	region string
	prefix string
	keep   int
	logger *zap.Logger
}

// NewArchiver creates an archiver writing below cfg.Prefix in bucket.
func NewArchiver(client storage.Client, bucket, region string, cfg Config, logger *zap.Logger) *Archiver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Archiver{
		client: client,
		bucket: bucket,
		region: region,
		prefix: strings.Trim(cfg.Prefix, "/"),
		keep:   cfg.Keep,
		logger: logger,
	}
}

// ObjectName returns the object key of the report of a scan.
func (a *Archiver) ObjectName(scanID string) string {
	if a.prefix == "" {
		return scanID + ".json"
	}
	return path.Join(a.prefix, scanID+".json")
}

// Upload stores the report and prunes old reports when retention is set.
// It returns the object key.
func (a *Archiver) Upload(ctx context.Context, r *Report) (string, error) {
	if r.Summary.ScanID == "" {
		return "", fmt.Errorf("report has no scan id")
	}
	if err := storage.EnsureBucket(ctx, a.client, a.bucket, a.region); err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}

	objName := a.ObjectName(r.Summary.ScanID)
	_, err = a.client.PutObject(ctx, a.bucket, objName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload report %s: %w", objName, err)
	}
	a.logger.Info("Report archived", zap.String("bucket", a.bucket), zap.String("object", objName))

	if a.keep > 0 {
		if _, err := a.Prune(ctx, a.keep); err != nil {
			a.logger.Warn("Report pruning failed", zap.Error(err))
		}
	}
	return objName, nil
}

// List returns the archived reports, newest first.
func (a *Archiver) List(ctx context.Context) ([]minio.ObjectInfo, error) {
	opts := minio.ListObjectsOptions{Recursive: true}
	if a.prefix != "" {
		opts.Prefix = a.prefix + "/"
	}

	var out []minio.ObjectInfo
	for obj := range a.client.ListObjects(ctx, a.bucket, opts) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list reports: %w", obj.Err)
		}
		if !strings.HasSuffix(obj.Key, ".json") {
			continue
		}
		out = append(out, obj)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastModified.After(out[j].LastModified)
	})
	return out, nil
}

// Get downloads the report of a scan.
func (a *Archiver) Get(ctx context.Context, scanID string) (*Report, error) {
	objName := a.ObjectName(scanID)
	obj, err := a.client.GetObject(ctx, a.bucket, objName, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get report %s: %w", objName, err)
	}
	defer obj.Close()

	var r Report
	if err := json.NewDecoder(obj).Decode(&r); err != nil {
		return nil, fmt.Errorf("failed to decode report %s: %w", objName, err)
	}
	return &r, nil
}

// Prune removes all but the newest keep reports and returns how many were removed.
func (a *Archiver) Prune(ctx context.Context, keep int) (int, error) {
	objects, err := a.List(ctx)
	if err != nil {
		return 0, err
	}
	if keep < 0 || len(objects) <= keep {
		return 0, nil
	}

	stale := objects[keep:]
	objectsCh := make(chan minio.ObjectInfo, len(stale))
	for _, obj := range stale {
		objectsCh <- minio.ObjectInfo{Key: obj.Key}
	}
	close(objectsCh)

	var failed []string
	for res := range a.client.RemoveObjects(ctx, a.bucket, objectsCh, minio.RemoveObjectsOptions{}) {
		if res.Err != nil {
			failed = append(failed, fmt.Sprintf("%s: %v", res.ObjectName, res.Err))
		}
	}

	removed := len(stale) - len(failed)
	if len(failed) > 0 {
		return removed, fmt.Errorf("prune had %d errors: %v", len(failed), failed)
	}
	a.logger.Info("Old reports pruned", zap.Int("removed", removed))
	return removed, nil
}

// Delete removes the report of a single scan.
func (a *Archiver) Delete(ctx context.Context, scanID string) error {
	objName := a.ObjectName(scanID)
	if err := a.client.RemoveObject(ctx, a.bucket, objName, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete report %s: %w", objName, err)
	}
	return nil
}
