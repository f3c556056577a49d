package records

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"bitrot-detector/core/fileid"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrStoreWrite is returned when pending records cannot be persisted.
	ErrStoreWrite = errors.New("record store write failed")
	// ErrStoreRead is returned when the store cannot be loaded.
	ErrStoreRead = errors.New("record store read failed")
	// ErrRecordNotFound is returned when no record exists for an identity.
	ErrRecordNotFound = errors.New("record not found")
)

const (
	// DefaultBatchSize is the number of rows written per INSERT statement.
	DefaultBatchSize = 500
	loadBatchSize    = 1000
)

var upsertColumns = []string{
	"path", "hash", "size", "last_modified_ns", "corrupted", "expected_hash", "updated_at",
}

// RecordStore caches the tracked files of a volume and buffers their changes.
type RecordStore struct {
	db        *gorm.DB
	batchSize int

	mu      sync.Mutex
	cache   map[fileid.Key]Record
	pending map[fileid.Key]struct{}
}

// New creates an empty store on top of db without reading it.
func New(db *gorm.DB) *RecordStore {
	return &RecordStore{
		db:        db,
		batchSize: DefaultBatchSize,
		cache:     make(map[fileid.Key]Record),
		pending:   make(map[fileid.Key]struct{}),
	}
}

// Load creates a store whose cache holds every persisted record with a
// non-empty hash. Rows sharing an identity collapse to the newest one.
func Load(ctx context.Context, db *gorm.DB) (*RecordStore, error) {
	s := New(db)

	var rows []FileRecord
	err := db.WithContext(ctx).Model(&FileRecord{}).FindInBatches(&rows, loadBatchSize, func(tx *gorm.DB, batch int) error {
		for _, row := range rows {
			if row.Hash == "" {
				continue
			}
			rec := fromRow(row)
			s.cache[rec.Key] = rec
		}
		return nil
	}).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreRead, err)
	}

	return s, nil
}

// SetBatchSize changes the number of rows per INSERT statement during Flush.
func (s *RecordStore) SetBatchSize(n int) {
	if n <= 0 {
		n = DefaultBatchSize
	}
	s.mu.Lock()
	s.batchSize = n
	s.mu.Unlock()
}

// Lookup returns the cached record for key.
func (s *RecordStore) Lookup(key fileid.Key) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.cache[key]
	return rec, ok
}

// Upsert stores rec in the cache and queues it for the next Flush.
func (s *RecordStore) Upsert(rec Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[rec.Key] = rec
	s.pending[rec.Key] = struct{}{}
}

// Identities returns a snapshot of every cached identity.
func (s *RecordStore) Identities() []fileid.Key {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]fileid.Key, 0, len(s.cache))
	for k := range s.cache {
		keys = append(keys, k)
	}
	return keys
}

// Len returns the number of cached records.
func (s *RecordStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cache)
}

// Pending returns the number of records waiting for Flush.
func (s *RecordStore) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Corrupted returns the cached records carrying the corruption flag, by path.
func (s *RecordStore) Corrupted() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Record
	for _, rec := range s.cache {
		if rec.Corrupted {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Flush writes every pending record in a single transaction. The pending
// buffer is only cleared when the transaction commits.
func (s *RecordStore) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushLocked(ctx)
}

func (s *RecordStore) flushLocked(ctx context.Context) error {
	if len(s.pending) == 0 {
		return nil
	}

	keys := make([]fileid.Key, 0, len(s.pending))
	for k := range s.pending {
		keys = append(keys, k)
	}
	sortKeys(keys)

	rows := make([]FileRecord, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, toRow(s.cache[k]))
	}

	onConflict := clause.OnConflict{
		Columns: []clause.Column{
			{Name: "identity_volume_serial"},
			{Name: "identity_file_id"},
		},
		DoUpdates: clause.AssignmentColumns(upsertColumns),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for start := 0; start < len(rows); start += s.batchSize {
			end := min(start+s.batchSize, len(rows))
			batch := rows[start:end]
			if err := tx.Clauses(onConflict).Create(&batch).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: flushing %d records: %w", ErrStoreWrite, len(rows), err)
	}

	clear(s.pending)
	return nil
}

// RemoveAll deletes the given identities from the database in one
// transaction. Cached and pending entries are dropped only after commit.
func (s *RecordStore) RemoveAll(ctx context.Context, keys []fileid.Key) error {
	if len(keys) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	byVolume := make(map[int64][]int64)
	for _, k := range keys {
		vol := int64(k.Volume)
		byVolume[vol] = append(byVolume[vol], int64(k.FileID))
	}

	volumes := make([]int64, 0, len(byVolume))
	for v := range byVolume {
		volumes = append(volumes, v)
	}
	sort.Slice(volumes, func(i, j int) bool { return volumes[i] < volumes[j] })

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, vol := range volumes {
			ids := byVolume[vol]
			for start := 0; start < len(ids); start += s.batchSize {
				end := min(start+s.batchSize, len(ids))
				err := tx.Where("identity_volume_serial = ? AND identity_file_id IN ?", vol, ids[start:end]).
					Delete(&FileRecord{}).Error
				if err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: removing %d records: %w", ErrStoreWrite, len(keys), err)
	}

	for _, k := range keys {
		delete(s.cache, k)
		delete(s.pending, k)
	}
	return nil
}

// ClearCorruption resets the corruption flag of key and persists it at once.
func (s *RecordStore) ClearCorruption(ctx context.Context, key fileid.Key) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.cache[key]
	if !ok {
		return Record{}, fmt.Errorf("%w: %s", ErrRecordNotFound, key)
	}

	rec.Corrupted = false
	rec.ExpectedHash = ""
	s.cache[key] = rec
	s.pending[key] = struct{}{}

	if err := s.flushLocked(ctx); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// MarkScanStart records that a scan of root has begun and is not complete.
func (s *RecordStore) MarkScanStart(ctx context.Context, scanID, root string, at time.Time) error {
	at = at.UTC()
	meta := ScanMetadata{
		ID:                metadataID,
		LastScanID:        scanID,
		LastScanRoot:      root,
		LastScanStartTime: &at,
		LastScanCompleted: false,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_scan_id", "last_scan_root", "last_scan_start_time", "last_scan_end_time", "last_scan_completed"}),
	}).Create(&meta).Error
	if err != nil {
		return fmt.Errorf("%w: marking scan start: %w", ErrStoreWrite, err)
	}
	return nil
}

// MarkScanComplete records that the current scan finished.
func (s *RecordStore) MarkScanComplete(ctx context.Context, at time.Time) error {
	err := s.db.WithContext(ctx).Model(&ScanMetadata{}).
		Where("id = ?", metadataID).
		Updates(map[string]any{
			"last_scan_completed": true,
			"last_scan_end_time":  at.UTC(),
		}).Error
	if err != nil {
		return fmt.Errorf("%w: marking scan complete: %w", ErrStoreWrite, err)
	}
	return nil
}

// LastScan returns the metadata of the latest scan.
func (s *RecordStore) LastScan(ctx context.Context) (ScanMetadata, error) {
	return LastScan(ctx, s.db)
}

func sortKeys(keys []fileid.Key) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Volume != keys[j].Volume {
			return keys[i].Volume < keys[j].Volume
		}
		return keys[i].FileID < keys[j].FileID
	})
}
