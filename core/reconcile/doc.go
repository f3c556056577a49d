// Package reconcile classifies the files of a volume against the record store.
//
// A scan walks the volume, resolves the identity of every regular file and
// compares what it finds with the stored record of that identity:
//
//   - no record: the file is new and gets hashed and recorded.
//   - timestamp differs: the file was modified; hash, size and timestamp are
//     overwritten and no corruption check takes place.
//   - timestamp equal and verification on: the file is rehashed; a different
//     digest marks the record corrupted. The flag is sticky and only cleared
//     through the record store.
//   - path differs: the file moved; only the path is updated. This combines
//     with any of the above.
//
// Hard links resolve to one identity; the last enumerated link owns the path.
// Pending changes are flushed every FlushInterval and once more at the end.
// After a completed scan, records whose identity was not seen are removed.
//
// # Concurrency
//
// Files are examined by a bounded errgroup pool (one worker by default).
// Hashing runs outside any lock; classification, store updates, progress
// reporting and flushes are serialized.
//
// # Usage
//
//	store, _ := records.Load(ctx, db)
//	engine := reconcile.New(store, fileid.NewResolver(), hasher.NewSHA256(0), logger, reconcile.Options{Verify: true})
//	summary, err := engine.Scan(ctx, "/mnt/archive", func(p reconcile.ScanProgress) {
//	    fmt.Printf("[%.1f%%] %s\n", p.Percent(), p.Message)
//	})
package reconcile
