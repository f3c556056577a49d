package records

import (
	"time"

	"bitrot-detector/core/fileid"
	"bitrot-detector/core/paths"
)

// FileRecord is the persisted row of a tracked file.
//
// Identity components are stored bit-cast to int64 since SQL drivers reject
// unsigned values with the high bit set.
type FileRecord struct {
	ID                   uint      `gorm:"primaryKey"`
	IdentityVolumeSerial int64     `gorm:"column:identity_volume_serial;not null;uniqueIndex:idx_file_identity,priority:1"`
	IdentityFileID       int64     `gorm:"column:identity_file_id;not null;uniqueIndex:idx_file_identity,priority:2"`
	Path                 string    `gorm:"column:path;type:text;not null"`
	Hash                 string    `gorm:"column:hash;size:64;index"`
	Size                 int64     `gorm:"column:size;not null"`
	LastModifiedNs       int64     `gorm:"column:last_modified_ns;not null"`
	Corrupted            bool      `gorm:"column:corrupted;not null;index"`
	ExpectedHash         string    `gorm:"column:expected_hash;size:64"`
	CreatedAt            time.Time `gorm:"column:created_at"`
	UpdatedAt            time.Time `gorm:"column:updated_at"`
}

// TableName overrides the table name.
func (FileRecord) TableName() string {
	return "file_records"
}

// ScanMetadata is the single row describing the latest scan.
type ScanMetadata struct {
	ID                uint       `gorm:"primaryKey;autoIncrement:false" json:"-"`
	LastScanID        string     `gorm:"column:last_scan_id;size:36" json:"last_scan_id"`
	LastScanRoot      string     `gorm:"column:last_scan_root;type:text" json:"last_scan_root"`
	LastScanStartTime *time.Time `gorm:"column:last_scan_start_time" json:"last_scan_start_time"`
	LastScanEndTime   *time.Time `gorm:"column:last_scan_end_time" json:"last_scan_end_time"`
	LastScanCompleted bool       `gorm:"column:last_scan_completed;not null" json:"last_scan_completed"`
}

// TableName overrides the table name.
func (ScanMetadata) TableName() string {
	return "scan_metadata"
}

const metadataID = 1

// Record is the in-memory view of a tracked file. ExpectedHash is the last
// known good digest, set when corruption is first flagged.
type Record struct {
	Key          fileid.Key           `json:"key"`
	Path         paths.NormalizedPath `json:"path"`
	Hash         string               `json:"hash"`
	Size         int64                `json:"size"`
	LastModified time.Time            `json:"last_modified"`
	Corrupted    bool                 `json:"corrupted"`
	ExpectedHash string               `json:"expected_hash,omitempty"`
}

func fromRow(row FileRecord) Record {
	return Record{
		Key: fileid.Key{
			Volume: uint64(row.IdentityVolumeSerial),
			FileID: uint64(row.IdentityFileID),
		},
		Path:         paths.NormalizedPath(row.Path),
		Hash:         row.Hash,
		Size:         row.Size,
		LastModified: time.Unix(0, row.LastModifiedNs).UTC(),
		Corrupted:    row.Corrupted,
		ExpectedHash: row.ExpectedHash,
	}
}

func toRow(rec Record) FileRecord {
	return FileRecord{
		IdentityVolumeSerial: int64(rec.Key.Volume),
		IdentityFileID:       int64(rec.Key.FileID),
		Path:                 rec.Path.String(),
		Hash:                 rec.Hash,
		Size:                 rec.Size,
		LastModifiedNs:       rec.LastModified.UnixNano(),
		Corrupted:            rec.Corrupted,
		ExpectedHash:         rec.ExpectedHash,
	}
}
