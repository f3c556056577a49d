package records_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"bitrot-detector/core/database"
	"bitrot-detector/core/fileid"
	"bitrot-detector/core/paths"
	"bitrot-detector/core/records"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := records.Open(database.Config{
		Driver: database.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), ".fileIntegrity", "FileIntegrity.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { database.Close(db) })
	return db
}

// setupMockDB creates a mock GORM DB using the MySQL dialect.
func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to open mock sql db: %v", err)
	}

	dialector := mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open gorm db: %v", err)
	}

	return gormDB, mock
}

func sampleRecord(vol, id uint64, path, hash string) records.Record {
	return records.Record{
		Key:          fileid.Key{Volume: vol, FileID: id},
		Path:         paths.Normalize(path),
		Hash:         hash,
		Size:         100,
		LastModified: time.Date(2024, 3, 1, 10, 0, 0, 123456789, time.UTC),
	}
}

func TestStore_FlushAndLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	store := records.New(db)
	a := sampleRecord(1, 42, "/vol/a.txt", "aa")
	b := sampleRecord(1, 0xffffffffffffff01, "/vol/b.txt", "bb")
	b.Corrupted = true
	b.ExpectedHash = "b0"
	store.Upsert(a)
	store.Upsert(b)
	assert.Equal(t, 2, store.Pending())

	require.NoError(t, store.Flush(ctx))
	assert.Equal(t, 0, store.Pending())

	loaded, err := records.Load(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Len())

	got, ok := loaded.Lookup(a.Key)
	require.True(t, ok)
	assert.Equal(t, a, got)

	got, ok = loaded.Lookup(b.Key)
	require.True(t, ok)
	assert.Equal(t, b, got)
}

func TestStore_FlushUpdatesExistingIdentity(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	store := records.New(db)
	rec := sampleRecord(7, 9, "/vol/a.txt", "h1")
	store.Upsert(rec)
	require.NoError(t, store.Flush(ctx))

	rec.Path = paths.Normalize("/vol/moved/a.txt")
	rec.Hash = "h2"
	store.Upsert(rec)
	require.NoError(t, store.Flush(ctx))

	var count int64
	require.NoError(t, db.Model(&records.FileRecord{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	loaded, err := records.Load(ctx, db)
	require.NoError(t, err)
	got, ok := loaded.Lookup(rec.Key)
	require.True(t, ok)
	assert.Equal(t, "h2", got.Hash)
	assert.Equal(t, paths.NormalizedPath("/vol/moved/a.txt"), got.Path)
}

func TestStore_FlushInBatches(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	store := records.New(db)
	store.SetBatchSize(3)
	for i := uint64(1); i <= 10; i++ {
		store.Upsert(sampleRecord(1, i, "/vol/f", "h"))
	}
	require.NoError(t, store.Flush(ctx))

	var count int64
	require.NoError(t, db.Model(&records.FileRecord{}).Count(&count).Error)
	assert.Equal(t, int64(10), count)
}

func TestStore_LoadSkipsEmptyHash(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	require.NoError(t, db.Create(&records.FileRecord{
		IdentityVolumeSerial: 1,
		IdentityFileID:       5,
		Path:                 "/vol/pending.txt",
	}).Error)

	store, err := records.Load(ctx, db)
	require.NoError(t, err)
	_, ok := store.Lookup(fileid.Key{Volume: 1, FileID: 5})
	assert.False(t, ok)
	assert.Equal(t, 0, store.Len())
}

func TestStore_LoadDeduplicatesOnFullIdentity(t *testing.T) {
	db, mock := setupMockDB(t)

	cols := []string{"id", "identity_volume_serial", "identity_file_id", "path", "hash", "size", "last_modified_ns", "corrupted", "expected_hash"}
	rows := sqlmock.NewRows(cols).
		AddRow(1, 1, 10, "/vol/old.txt", "h-old", 1, 0, false, "").
		AddRow(2, 2, 10, "/other/x.txt", "h-other", 1, 0, false, "").
		AddRow(3, 1, 10, "/vol/new.txt", "h-new", 1, 0, false, "")
	mock.ExpectQuery("SELECT \\* FROM `file_records`").WillReturnRows(rows)

	store, err := records.Load(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, 2, store.Len())

	got, ok := store.Lookup(fileid.Key{Volume: 1, FileID: 10})
	require.True(t, ok)
	assert.Equal(t, "h-new", got.Hash)

	got, ok = store.Lookup(fileid.Key{Volume: 2, FileID: 10})
	require.True(t, ok)
	assert.Equal(t, "h-other", got.Hash)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_LoadFailure(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectQuery("SELECT \\* FROM `file_records`").WillReturnError(errors.New("disk I/O error"))

	_, err := records.Load(context.Background(), db)
	assert.ErrorIs(t, err, records.ErrStoreRead)
}

func TestStore_LookupNeverQueries(t *testing.T) {
	db, mock := setupMockDB(t)
	store := records.New(db)

	rec := sampleRecord(1, 1, "/vol/a", "h")
	store.Upsert(rec)
	got, ok := store.Lookup(rec.Key)
	assert.True(t, ok)
	assert.Equal(t, rec, got)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_FlushFailureKeepsPending(t *testing.T) {
	db, mock := setupMockDB(t)
	store := records.New(db)

	rec := sampleRecord(1, 1, "/vol/a", "h")
	store.Upsert(rec)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `file_records`").WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := store.Flush(context.Background())
	assert.ErrorIs(t, err, records.ErrStoreWrite)
	assert.Equal(t, 1, store.Pending())

	got, ok := store.Lookup(rec.Key)
	assert.True(t, ok)
	assert.Equal(t, rec, got)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_FlushNothingPending(t *testing.T) {
	db, mock := setupMockDB(t)
	assert.NoError(t, records.New(db).Flush(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_RemoveAll(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	store := records.New(db)
	keep := sampleRecord(1, 1, "/vol/keep", "h")
	gone := sampleRecord(1, 2, "/vol/gone", "h")
	sameIDOtherVolume := sampleRecord(2, 2, "/vol2/other", "h")
	store.Upsert(keep)
	store.Upsert(gone)
	store.Upsert(sameIDOtherVolume)
	require.NoError(t, store.Flush(ctx))

	require.NoError(t, store.RemoveAll(ctx, []fileid.Key{gone.Key}))

	_, ok := store.Lookup(gone.Key)
	assert.False(t, ok)

	loaded, err := records.Load(ctx, db)
	require.NoError(t, err)
	assert.ElementsMatch(t, []fileid.Key{keep.Key, sameIDOtherVolume.Key}, loaded.Identities())
}

func TestStore_RemoveAllDropsPending(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	store := records.New(db)
	rec := sampleRecord(1, 1, "/vol/a", "h")
	store.Upsert(rec)
	require.NoError(t, store.RemoveAll(ctx, []fileid.Key{rec.Key}))
	assert.Equal(t, 0, store.Pending())
}

func TestStore_RemoveAllFailure(t *testing.T) {
	db, mock := setupMockDB(t)
	store := records.New(db)
	rec := sampleRecord(1, 1, "/vol/a", "h")
	store.Upsert(rec)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM `file_records`").WillReturnError(errors.New("locked"))
	mock.ExpectRollback()

	err := store.RemoveAll(context.Background(), []fileid.Key{rec.Key})
	assert.ErrorIs(t, err, records.ErrStoreWrite)
	assert.NoError(t, mock.ExpectationsWereMet())

	got, ok := store.Lookup(rec.Key)
	assert.True(t, ok)
	assert.Equal(t, rec, got)
	assert.Equal(t, 1, store.Pending())
}

func TestStore_ClearCorruption(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	store := records.New(db)
	rec := sampleRecord(1, 1, "/vol/a", "h2")
	rec.Corrupted = true
	rec.ExpectedHash = "h1"
	store.Upsert(rec)
	require.NoError(t, store.Flush(ctx))
	assert.Len(t, store.Corrupted(), 1)

	cleared, err := store.ClearCorruption(ctx, rec.Key)
	require.NoError(t, err)
	assert.False(t, cleared.Corrupted)
	assert.Empty(t, cleared.ExpectedHash)
	assert.Empty(t, store.Corrupted())

	list, err := records.ListCorrupted(ctx, db)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = store.ClearCorruption(ctx, fileid.Key{Volume: 9, FileID: 9})
	assert.ErrorIs(t, err, records.ErrRecordNotFound)
}

func TestStore_ScanMetadata(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	store := records.New(db)

	meta, err := store.LastScan(ctx)
	require.NoError(t, err)
	assert.False(t, meta.LastScanCompleted)
	assert.Nil(t, meta.LastScanStartTime)

	start := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	require.NoError(t, store.MarkScanStart(ctx, "scan-1", "/vol", start))

	meta, err = store.LastScan(ctx)
	require.NoError(t, err)
	assert.Equal(t, "scan-1", meta.LastScanID)
	assert.Equal(t, "/vol", meta.LastScanRoot)
	require.NotNil(t, meta.LastScanStartTime)
	assert.True(t, start.Equal(*meta.LastScanStartTime))
	assert.False(t, meta.LastScanCompleted)

	end := start.Add(time.Hour)
	require.NoError(t, store.MarkScanComplete(ctx, end))

	meta, err = store.LastScan(ctx)
	require.NoError(t, err)
	assert.True(t, meta.LastScanCompleted)
	require.NotNil(t, meta.LastScanEndTime)
	assert.True(t, end.Equal(*meta.LastScanEndTime))

	// A new start resets completion
	require.NoError(t, store.MarkScanStart(ctx, "scan-2", "/vol", end))
	meta, err = store.LastScan(ctx)
	require.NoError(t, err)
	assert.Equal(t, "scan-2", meta.LastScanID)
	assert.False(t, meta.LastScanCompleted)
	assert.Nil(t, meta.LastScanEndTime)
}

func TestReadStats(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	store := records.New(db)
	a := sampleRecord(1, 1, "/vol/a", "h")
	b := sampleRecord(1, 2, "/vol/b", "h")
	b.Corrupted = true
	store.Upsert(a)
	store.Upsert(b)
	require.NoError(t, store.Flush(ctx))

	st, err := records.ReadStats(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, records.Stats{Tracked: 2, Corrupted: 1, Bytes: 200}, st)

	list, err := records.ListCorrupted(ctx, db)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, b.Key, list[0].Key)
}

func TestMigrate_SchemaColumns(t *testing.T) {
	db := openTestDB(t)

	missing, err := database.MissingColumns(db, "file_records", []string{"identity_volume_serial", "identity_file_id", "last_modified_ns"})
	require.NoError(t, err)
	assert.Empty(t, missing)
}
