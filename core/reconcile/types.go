package reconcile

import (
	"context"
	"time"

	"bitrot-detector/core/fileid"
	"bitrot-detector/core/records"
)

// Store is the record store consumed by the engine.
type Store interface {
	// Lookup returns the cached record of an identity.
	Lookup(key fileid.Key) (records.Record, bool)
	// Upsert stores a record and queues it for the next flush.
	Upsert(rec records.Record)
	// Identities returns every tracked identity.
	Identities() []fileid.Key
	// RemoveAll deletes records durably.
	RemoveAll(ctx context.Context, keys []fileid.Key) error
	// Flush persists all queued records.
	Flush(ctx context.Context) error
	// MarkScanStart records that a scan has begun.
	MarkScanStart(ctx context.Context, scanID, root string, at time.Time) error
	// MarkScanComplete records that the current scan finished.
	MarkScanComplete(ctx context.Context, at time.Time) error
}

// Outcome is the content classification of a scanned file.
type Outcome string

const (
	// OutcomeNew is a file with no prior record.
	OutcomeNew Outcome = "new"
	// OutcomeUnchanged is a file whose timestamp matches its record.
	OutcomeUnchanged Outcome = "unchanged"
	// OutcomeModified is a file whose timestamp differs from its record.
	OutcomeModified Outcome = "modified"
	// OutcomeCorrupted is a file whose content changed while its timestamp did not.
	OutcomeCorrupted Outcome = "corrupted"
	// OutcomeFailed is a file that could not be examined.
	OutcomeFailed Outcome = "failed"
)

// Phase is the stage a scan is in.
type Phase string

const (
	PhaseEnumerating Phase = "enumerating"
	PhaseScanning    Phase = "scanning"
	PhaseRemoving    Phase = "removing"
	PhaseComplete    Phase = "complete"
)

// ScanProgress is delivered to the progress sink during a scan.
type ScanProgress struct {
	// Processed is the number of files examined so far.
	Processed int
	// Total is the number of files found by enumeration.
	Total int
	// CurrentPath is the file the update refers to, if any.
	CurrentPath string
	Phase       Phase
	Message     string
	// Outcome is set for per-file updates.
	Outcome Outcome
	// Moved reports that the file's recorded path was updated.
	Moved bool
	// Err is set when the file could not be examined.
	Err error
	// Verifying reports that content of unchanged files is rehashed.
	Verifying bool
	// Complete is set on the final update of a successful scan.
	Complete bool
}

// Percent returns the share of processed files in [0, 100].
func (p ScanProgress) Percent() float64 {
	if p.Total == 0 {
		if p.Complete {
			return 100
		}
		return 0
	}
	return float64(p.Processed) * 100 / float64(p.Total)
}

// ProgressSink receives scan progress. Calls are serialized.
type ProgressSink func(ScanProgress)

// Summary aggregates the result of one scan. Moved counts path updates and
// overlaps with the content outcomes.
type Summary struct {
	ScanID    string    `json:"scan_id"`
	Root      string    `json:"root"`
	Verified  bool      `json:"verified"`
	Started   time.Time `json:"started"`
	Finished  time.Time `json:"finished"`
	Total     int       `json:"total"`
	New       int       `json:"new"`
	Modified  int       `json:"modified"`
	Moved     int       `json:"moved"`
	Corrupted int       `json:"corrupted"`
	Unchanged int       `json:"unchanged"`
	Removed   int       `json:"removed"`
	Errors    int       `json:"errors"`
	Cancelled bool      `json:"cancelled"`
}

// Duration returns the wall time of the scan.
func (s Summary) Duration() time.Duration {
	if s.Finished.IsZero() {
		return 0
	}
	return s.Finished.Sub(s.Started)
}

func (s *Summary) count(o Outcome) {
	switch o {
	case OutcomeNew:
		s.New++
	case OutcomeUnchanged:
		s.Unchanged++
	case OutcomeModified:
		s.Modified++
	case OutcomeCorrupted:
		s.Corrupted++
	case OutcomeFailed:
		s.Errors++
	}
}
