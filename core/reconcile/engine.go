package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"bitrot-detector/core/fileid"
	"bitrot-detector/core/hasher"
	"bitrot-detector/core/paths"
	"bitrot-detector/core/records"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultFlushInterval is the time between periodic flushes of pending records.
	DefaultFlushInterval = 5 * time.Minute
	// DefaultStoreDir is the directory holding the record store inside a volume.
	DefaultStoreDir = ".fileIntegrity"
)

// Options controls a scan.
type Options struct {
	// Verify rehashes files whose timestamp is unchanged.
	Verify bool
	// Workers is the number of files examined concurrently. Defaults to 1.
	Workers int
	// FlushInterval is the time between periodic flushes.
	FlushInterval time.Duration
	// StoreDir is the directory name never descended into.
	StoreDir string
	// Exclude holds glob patterns of files and directories to skip.
	Exclude []string
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = 1
	}
	if o.FlushInterval <= 0 {
		o.FlushInterval = DefaultFlushInterval
	}
	if o.StoreDir == "" {
		o.StoreDir = DefaultStoreDir
	}
	return o
}

// Engine reconciles the files of a volume against the record store.
type Engine struct {
	store    Store
	resolver fileid.Resolver
	hasher   hasher.Hasher
	logger   *zap.Logger
	opts     Options

	now   func() time.Time
	newID func() string
}

// New creates an engine.
func New(store Store, resolver fileid.Resolver, h hasher.Hasher, logger *zap.Logger, opts Options) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		store:    store,
		resolver: resolver,
		hasher:   h,
		logger:   logger,
		opts:     opts.withDefaults(),
		now:      time.Now,
		newID:    func() string { return uuid.NewString() },
	}
}

// WithClock replaces the time source used for timestamps and flush timing.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// scanState is shared by the workers of one scan and guarded by mu.
type scanState struct {
	mu        sync.Mutex
	seen      map[fileid.Key]int // identity -> index of the owning path
	summary   *Summary
	processed int
	total     int
	lastFlush time.Time
	sink      ProgressSink
}

func (st *scanState) emit(p ScanProgress) {
	if st.sink != nil {
		st.sink(p)
	}
}

// Scan walks root, classifies every regular file against the store and
// removes the records of files that no longer exist. Per-file failures are
// reported through sink and never abort the scan; a failed store write does.
//
// When ctx is cancelled, files in flight finish, pending records are flushed
// and ctx.Err() is returned. The scan is then neither marked complete nor
// followed by the removal of vanished records.
func (e *Engine) Scan(ctx context.Context, root string, sink ProgressSink) (*Summary, error) {
	root, err := paths.ValidateVolumeRoot(root)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		ScanID:   e.newID(),
		Root:     root,
		Verified: e.opts.Verify,
		Started:  e.now(),
	}
	st := &scanState{
		seen:      make(map[fileid.Key]int),
		summary:   summary,
		lastFlush: summary.Started,
		sink:      sink,
	}
	log := e.logger.With(zap.String("scan_id", summary.ScanID), zap.String("root", root))

	// 1. Enumerate
	st.emit(ScanProgress{Phase: PhaseEnumerating, Message: "Enumerating files...", Verifying: e.opts.Verify})
	files, err := e.enumerate(ctx, root, func(path string, err error) {
		st.mu.Lock()
		defer st.mu.Unlock()
		summary.Errors++
		log.Warn("Directory unreadable", zap.String("path", path), zap.Error(err))
		st.emit(ScanProgress{
			Phase:       PhaseEnumerating,
			CurrentPath: path,
			Message:     fmt.Sprintf("Error reading %s", path),
			Outcome:     OutcomeFailed,
			Err:         err,
			Verifying:   e.opts.Verify,
		})
	})
	if err != nil {
		if ctx.Err() != nil {
			summary.Cancelled = true
			return summary, ctx.Err()
		}
		return nil, fmt.Errorf("failed to enumerate %s: %w", root, err)
	}
	st.total = len(files)
	summary.Total = len(files)

	// 2. Mark the scan as started and incomplete
	if err := e.store.MarkScanStart(ctx, summary.ScanID, root, summary.Started); err != nil {
		return summary, err
	}
	log.Info("Scan started", zap.Int("files", len(files)), zap.Bool("verify", e.opts.Verify), zap.Int("workers", e.opts.Workers))

	// 3. Resolve identities; the last enumerated link of an identity owns its path
	keys, err := e.resolveAll(ctx, st, log, files)
	if err != nil {
		summary.Finished = e.now()
		return summary, err
	}

	// 4. Examine every file
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)
	for i, path := range files {
		if gctx.Err() != nil {
			break
		}
		key, ok := keys[i]
		if !ok {
			continue
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			return e.processFile(gctx, st, log, path, files[st.seen[key]], key)
		})
	}
	if err := g.Wait(); err != nil {
		summary.Finished = e.now()
		log.Error("Scan aborted", zap.Error(err))
		return summary, err
	}

	if ctx.Err() != nil {
		summary.Cancelled = true
		summary.Finished = e.now()
		if err := e.store.Flush(context.WithoutCancel(ctx)); err != nil {
			log.Error("Flush after cancellation failed", zap.Error(err))
			return summary, err
		}
		log.Warn("Scan cancelled", zap.Int("processed", st.processed), zap.Int("total", st.total))
		return summary, ctx.Err()
	}

	// 5. Persist remaining changes and mark the scan complete
	if err := e.store.Flush(ctx); err != nil {
		summary.Finished = e.now()
		return summary, err
	}
	if err := e.store.MarkScanComplete(ctx, e.now()); err != nil {
		summary.Finished = e.now()
		return summary, err
	}

	// 6. Remove records of files not seen in this scan
	st.emit(ScanProgress{
		Processed: st.processed,
		Total:     st.total,
		Phase:     PhaseRemoving,
		Message:   "Removing vanished records...",
		Verifying: e.opts.Verify,
	})
	vanished := e.vanished(root, st.seen)
	if err := e.store.RemoveAll(ctx, vanished); err != nil {
		summary.Finished = e.now()
		return summary, err
	}
	summary.Removed = len(vanished)
	summary.Finished = e.now()

	st.emit(ScanProgress{
		Processed: st.processed,
		Total:     st.total,
		Phase:     PhaseComplete,
		Message:   "Scan complete",
		Verifying: e.opts.Verify,
		Complete:  true,
	})
	log.Info("Scan completed",
		zap.Int("total", summary.Total),
		zap.Int("new", summary.New),
		zap.Int("modified", summary.Modified),
		zap.Int("moved", summary.Moved),
		zap.Int("corrupted", summary.Corrupted),
		zap.Int("unchanged", summary.Unchanged),
		zap.Int("removed", summary.Removed),
		zap.Int("errors", summary.Errors),
		zap.Duration("duration", summary.Duration()),
	)
	return summary, nil
}

// resolveAll resolves the identity of every file and records, per identity,
// the highest enumeration index. Files whose identity is unavailable are
// reported and left out of the result.
func (e *Engine) resolveAll(ctx context.Context, st *scanState, log *zap.Logger, files []string) (map[int]fileid.Key, error) {
	resolved := make([]fileid.Key, len(files))
	ok := make([]bool, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)
	for i, path := range files {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			key, err := e.resolver.Resolve(path)
			if err != nil {
				return e.fail(gctx, st, log, path, err)
			}
			resolved[i] = key
			ok[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	keys := make(map[int]fileid.Key, len(files))
	for i, key := range resolved {
		if !ok[i] {
			continue
		}
		keys[i] = key
		st.seen[key] = i
	}
	return keys, nil
}

// processFile examines one enumerated file. Only store write failures are
// returned; everything else is reported and counted.
func (e *Engine) processFile(ctx context.Context, st *scanState, log *zap.Logger, path, ownerPath string, key fileid.Key) error {
	info, err := paths.Stat(path)
	if err != nil {
		return e.fail(ctx, st, log, path, fmt.Errorf("%w: %s: %w", hasher.ErrHashUnavailable, path, err))
	}
	mtime := info.ModTime().UTC()
	size := info.Size()

	rec, tracked := e.store.Lookup(key)
	var observed string
	if needsHash(rec, tracked, mtime, e.opts.Verify) {
		observed, err = e.hasher.Hash(path)
		if err != nil {
			return e.fail(ctx, st, log, path, err)
		}
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	// Re-read under the lock: a hard link of the same identity may have been
	// applied while this file was hashed.
	rec, tracked = e.store.Lookup(key)
	if tracked && observed == "" && needsHash(rec, tracked, mtime, e.opts.Verify) {
		st.mu.Unlock()
		observed, err = e.hasher.Hash(path)
		st.mu.Lock()
		if err != nil {
			return e.failLocked(ctx, st, log, path, err)
		}
		rec, tracked = e.store.Lookup(key)
	}

	next, outcome, moved := classify(rec, tracked, fileState{
		key:    key,
		path:   paths.Normalize(ownerPath),
		size:   size,
		mtime:  mtime,
		hash:   observed,
		verify: e.opts.Verify,
	})

	if outcome == OutcomeCorrupted {
		log.Error("Corruption detected",
			zap.String("path", path),
			zap.String("identity", key.String()),
			zap.String("expected", next.ExpectedHash),
			zap.String("observed", observed),
		)
	}
	if outcome != OutcomeUnchanged || moved {
		e.store.Upsert(next)
	}

	st.processed++
	st.summary.count(outcome)
	if moved {
		st.summary.Moved++
	}
	verb := "Scanning"
	if e.opts.Verify {
		verb = "Verifying"
	}
	st.emit(ScanProgress{
		Processed:   st.processed,
		Total:       st.total,
		CurrentPath: path,
		Phase:       PhaseScanning,
		Message:     fmt.Sprintf("%s: %s", verb, paths.Normalize(path).Base()),
		Outcome:     outcome,
		Moved:       moved,
		Verifying:   e.opts.Verify,
	})

	return e.maybeFlushLocked(ctx, st, log)
}

func (e *Engine) fail(ctx context.Context, st *scanState, log *zap.Logger, path string, err error) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	return e.failLocked(ctx, st, log, path, err)
}

func (e *Engine) failLocked(ctx context.Context, st *scanState, log *zap.Logger, path string, err error) error {
	st.processed++
	st.summary.count(OutcomeFailed)
	log.Warn("File skipped", zap.String("path", path), zap.Error(err))
	st.emit(ScanProgress{
		Processed:   st.processed,
		Total:       st.total,
		CurrentPath: path,
		Phase:       PhaseScanning,
		Message:     fmt.Sprintf("Error processing %s: %v", path, err),
		Outcome:     OutcomeFailed,
		Err:         err,
		Verifying:   e.opts.Verify,
	})
	return e.maybeFlushLocked(ctx, st, log)
}

// maybeFlushLocked flushes once FlushInterval has passed since the last flush.
func (e *Engine) maybeFlushLocked(ctx context.Context, st *scanState, log *zap.Logger) error {
	now := e.now()
	if now.Sub(st.lastFlush) < e.opts.FlushInterval {
		return nil
	}
	if err := e.store.Flush(ctx); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			// Retried by the flush that follows cancellation.
			return nil
		}
		return err
	}
	st.lastFlush = now
	log.Debug("Pending records flushed", zap.Int("processed", st.processed))
	return nil
}

// vanished returns the tracked identities that were not seen, limited to
// the volumes this scan covered. Paths are not consulted since a volume may
// be mounted or renamed elsewhere between scans.
func (e *Engine) vanished(root string, seen map[fileid.Key]int) []fileid.Key {
	volumes := make(map[uint64]struct{})
	if key, err := e.resolver.Resolve(root); err == nil {
		volumes[key.Volume] = struct{}{}
	}
	for key := range seen {
		volumes[key.Volume] = struct{}{}
	}

	var out []fileid.Key
	for _, key := range e.store.Identities() {
		if _, ok := seen[key]; ok {
			continue
		}
		if _, ok := volumes[key.Volume]; !ok {
			continue
		}
		out = append(out, key)
	}
	return out
}

// fileState is what a scan observed about one identity. path is the last
// enumerated link of the identity; hash is empty when content was not read.
type fileState struct {
	key    fileid.Key
	path   paths.NormalizedPath
	size   int64
	mtime  time.Time
	hash   string
	verify bool
}

// needsHash reports whether the content must be read to classify a file.
func needsHash(rec records.Record, tracked bool, mtime time.Time, verify bool) bool {
	if !tracked {
		return true
	}
	if !rec.LastModified.Equal(mtime) {
		return true
	}
	return verify
}

// classify derives the next record of a file from its stored record and
// what was observed on disk.
func classify(rec records.Record, tracked bool, obs fileState) (records.Record, Outcome, bool) {
	if !tracked {
		return records.Record{
			Key:          obs.key,
			Path:         obs.path,
			Hash:         obs.hash,
			Size:         obs.size,
			LastModified: obs.mtime,
		}, OutcomeNew, false
	}

	next := rec
	outcome := OutcomeUnchanged

	switch {
	case !rec.LastModified.Equal(obs.mtime):
		next.Hash = obs.hash
		next.Size = obs.size
		next.LastModified = obs.mtime
		outcome = OutcomeModified
	case obs.verify && obs.hash != rec.Hash:
		if !rec.Corrupted {
			next.ExpectedHash = rec.Hash
		}
		next.Corrupted = true
		next.Hash = obs.hash
		next.Size = obs.size
		outcome = OutcomeCorrupted
	}

	moved := false
	if rec.Path != obs.path {
		next.Path = obs.path
		moved = true
	}
	return next, outcome, moved
}
