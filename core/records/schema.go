package records

import (
	"context"
	"errors"
	"fmt"

	"bitrot-detector/core/database"

	"gorm.io/gorm"
)

var requiredColumns = map[string][]string{
	"file_records": {
		"id", "identity_volume_serial", "identity_file_id", "path", "hash",
		"size", "last_modified_ns", "corrupted", "expected_hash",
	},
	"scan_metadata": {
		"id", "last_scan_id", "last_scan_start_time", "last_scan_completed",
	},
}

// Migrate creates or updates the store schema and seeds the metadata row.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&FileRecord{}, &ScanMetadata{}); err != nil {
		return fmt.Errorf("failed to migrate record store: %w", err)
	}

	meta := ScanMetadata{ID: metadataID}
	if err := db.FirstOrCreate(&meta, ScanMetadata{ID: metadataID}).Error; err != nil {
		return fmt.Errorf("failed to seed scan metadata: %w", err)
	}

	for table, columns := range requiredColumns {
		missing, err := database.MissingColumns(db, table, columns)
		if err != nil {
			return err
		}
		if len(missing) > 0 {
			return fmt.Errorf("table %s is missing columns %v", table, missing)
		}
	}
	return nil
}

// Open connects to the database described by cfg and migrates it.
func Open(cfg database.Config) (*gorm.DB, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		_ = database.Close(db)
		return nil, err
	}
	return db, nil
}

// LastScan reads the scan metadata row.
func LastScan(ctx context.Context, db *gorm.DB) (ScanMetadata, error) {
	var meta ScanMetadata
	err := db.WithContext(ctx).Where("id = ?", metadataID).Take(&meta).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ScanMetadata{ID: metadataID}, nil
	}
	if err != nil {
		return ScanMetadata{}, fmt.Errorf("%w: %w", ErrStoreRead, err)
	}
	return meta, nil
}

// Stats summarizes the persisted records.
type Stats struct {
	Tracked   int64 `json:"tracked"`
	Corrupted int64 `json:"corrupted"`
	Bytes     int64 `json:"bytes"`
}

// ReadStats counts tracked and corrupted records directly in the database.
func ReadStats(ctx context.Context, db *gorm.DB) (Stats, error) {
	var st Stats
	q := db.WithContext(ctx).Model(&FileRecord{}).Where("hash <> ?", "")
	if err := q.Count(&st.Tracked).Error; err != nil {
		return Stats{}, fmt.Errorf("%w: %w", ErrStoreRead, err)
	}

	q = db.WithContext(ctx).Model(&FileRecord{}).Where("corrupted = ?", true)
	if err := q.Count(&st.Corrupted).Error; err != nil {
		return Stats{}, fmt.Errorf("%w: %w", ErrStoreRead, err)
	}

	var total struct{ Bytes int64 }
	err := db.WithContext(ctx).Model(&FileRecord{}).
		Select("COALESCE(SUM(size), 0) AS bytes").
		Where("hash <> ?", "").
		Scan(&total).Error
	if err != nil {
		return Stats{}, fmt.Errorf("%w: %w", ErrStoreRead, err)
	}
	st.Bytes = total.Bytes
	return st, nil
}

// ListCorrupted returns the persisted records carrying the corruption flag.
func ListCorrupted(ctx context.Context, db *gorm.DB) ([]Record, error) {
	var rows []FileRecord
	err := db.WithContext(ctx).
		Where("corrupted = ?", true).
		Order("path").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreRead, err)
	}

	out := make([]Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromRow(row))
	}
	return out, nil
}
