package integrity

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"bitrot-detector/core/fileid"
	"bitrot-detector/core/hasher"
	"bitrot-detector/core/records"
	"bitrot-detector/core/reconcile"
	"bitrot-detector/feature/report"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

var (
	// ErrScanInProgress is returned by operations that cannot run alongside a scan.
	ErrScanInProgress = errors.New("scan in progress")
	// ErrArchiveDisabled is returned when report archival is not configured.
	ErrArchiveDisabled = errors.New("report archive disabled")
)

// Status describes the record store of a volume.
type Status struct {
	Root              string             `json:"root"`
	Running           bool               `json:"running"`
	LastScanID        string             `json:"last_scan_id,omitempty"`
	LastScanStart     *time.Time         `json:"last_scan_start,omitempty"`
	LastScanEnd       *time.Time         `json:"last_scan_end,omitempty"`
	LastScanCompleted bool               `json:"last_scan_completed"`
	Tracked           int64              `json:"tracked"`
	Corrupted         int64              `json:"corrupted"`
	Bytes             int64              `json:"bytes"`
	LastSummary       *reconcile.Summary `json:"last_summary,omitempty"`
}

// Service runs scans of one volume and answers questions about its records.
type Service struct {
	root     string
	db       *gorm.DB
	cfg      reconcile.Config
	resolver fileid.Resolver
	hasher   hasher.Hasher
	archiver *report.Archiver
	logger   *zap.Logger

	// mu is held for the duration of a scan and of a clear.
	mu      sync.Mutex
	group   singleflight.Group
	running atomic.Bool
	last    atomic.Pointer[reconcile.Summary]
}

// NewService creates a service for the volume at root. archiver may be nil.
func NewService(root string, db *gorm.DB, cfg reconcile.Config, archiver *report.Archiver, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		root:     root,
		db:       db,
		cfg:      cfg,
		resolver: fileid.NewResolver(),
		hasher:   hasher.NewSHA256(cfg.BufferSize()),
		archiver: archiver,
		logger:   logger.With(zap.String("root", root)),
	}
}

// Status reads the scan metadata and record counts.
func (s *Service) Status(ctx context.Context) (*Status, error) {
	meta, err := records.LastScan(ctx, s.db)
	if err != nil {
		return nil, err
	}
	stats, err := records.ReadStats(ctx, s.db)
	if err != nil {
		return nil, err
	}

	return &Status{
		Root:              s.root,
		Running:           s.running.Load(),
		LastScanID:        meta.LastScanID,
		LastScanStart:     meta.LastScanStartTime,
		LastScanEnd:       meta.LastScanEndTime,
		LastScanCompleted: meta.LastScanCompleted,
		Tracked:           stats.Tracked,
		Corrupted:         stats.Corrupted,
		Bytes:             stats.Bytes,
		LastSummary:       s.last.Load(),
	}, nil
}

// Corrupted lists the records flagged as corrupted.
func (s *Service) Corrupted(ctx context.Context) ([]records.Record, error) {
	return records.ListCorrupted(ctx, s.db)
}

// Clear resets the corruption flag of a record. It fails with
// ErrScanInProgress while a scan is running.
func (s *Service) Clear(ctx context.Context, key fileid.Key) (records.Record, error) {
	if !s.mu.TryLock() {
		return records.Record{}, ErrScanInProgress
	}
	defer s.mu.Unlock()

	store, err := records.Load(ctx, s.db)
	if err != nil {
		return records.Record{}, err
	}
	rec, err := store.ClearCorruption(ctx, key)
	if err != nil {
		return records.Record{}, err
	}
	s.logger.Info("Corruption flag cleared", zap.String("key", key.String()), zap.String("path", rec.Path.String()))
	return rec, nil
}

// Scan reconciles the volume. Concurrent calls with the same verify flag
// share a single scan and its summary; shared reports whether the result was
// shared. The scan outlives cancellation of ctx.
func (s *Service) Scan(ctx context.Context, verify bool) (*reconcile.Summary, bool, error) {
	key := fmt.Sprintf("%s|%t", s.root, verify)
	v, err, shared := s.group.Do(key, func() (any, error) {
		// shared with other callers, so one disconnect must not abort it
		return s.scan(context.WithoutCancel(ctx), verify)
	})
	summary, _ := v.(*reconcile.Summary)
	return summary, shared, err
}

func (s *Service) scan(ctx context.Context, verify bool) (*reconcile.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running.Store(true)
	defer s.running.Store(false)

	store, err := records.Load(ctx, s.db)
	if err != nil {
		return nil, err
	}

	opts := s.cfg.Options()
	opts.Verify = verify
	engine := reconcile.New(store, s.resolver, s.hasher, s.logger, opts)

	collector := report.NewCollector(nil)
	summary, err := engine.Scan(ctx, s.root, collector.Sink())
	if err != nil {
		return summary, err
	}
	s.last.Store(summary)

	if s.archiver != nil {
		r := report.Build(summary, store.Corrupted(), collector.Errors())
		if _, err := s.archiver.Upload(ctx, r); err != nil {
			s.logger.Warn("Report upload failed", zap.String("scan_id", summary.ScanID), zap.Error(err))
		}
	}
	return summary, nil
}

// Reports lists the archived scan reports, newest first.
func (s *Service) Reports(ctx context.Context) ([]minio.ObjectInfo, error) {
	if s.archiver == nil {
		return nil, ErrArchiveDisabled
	}
	return s.archiver.List(ctx)
}

// Report fetches the archived report of a scan.
func (s *Service) Report(ctx context.Context, scanID string) (*report.Report, error) {
	if s.archiver == nil {
		return nil, ErrArchiveDisabled
	}
	r, err := s.archiver.Get(ctx, scanID)
	if err != nil {
		return nil, fmt.Errorf("report %s: %w", scanID, err)
	}
	return r, nil
}
