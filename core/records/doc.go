// Package records implements the persistent record store of known files.
//
// # Store layout
//
// Every tracked file is a FileRecord row keyed by its identity (volume serial
// plus stable file id). A single ScanMetadata row remembers when the last scan
// started and whether it completed.
//
// # RecordStore
//
// A RecordStore is loaded once per scan. It keeps an in-memory cache of every
// record with a non-empty hash, keyed by the full identity, so lookups never
// touch the database. Mutations go to the cache and into a pending buffer that
// Flush writes in one transaction. The cache stays valid across flushes.
//
//	store, err := records.Load(ctx, db)
//	rec, ok := store.Lookup(key)
//	store.Upsert(rec)
//	if err := store.Flush(ctx); errors.Is(err, records.ErrStoreWrite) {
//	    // fatal for the scan
//	}
package records
