package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"bitrot-detector/core/records"
	"bitrot-detector/core/reconcile"
)

// Entry describes one corrupted file.
type Entry struct {
	Key          string    `json:"key"`
	Path         string    `json:"path"`
	Hash         string    `json:"hash"`
	ExpectedHash string    `json:"expected_hash,omitempty"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}

// FileError is a per-file failure observed during a scan.
type FileError struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// Report is the persisted outcome of one scan.
type Report struct {
	Summary     reconcile.Summary `json:"summary"`
	Corrupted   []Entry           `json:"corrupted"`
	Errors      []FileError       `json:"errors"`
	GeneratedAt time.Time         `json:"generated_at"`
}

// Build assembles a report from a scan summary, the corrupted records of the
// store and the failures collected while scanning.
func Build(summary *reconcile.Summary, corrupted []records.Record, errs []FileError) *Report {
	r := &Report{
		Corrupted:   make([]Entry, 0, len(corrupted)),
		Errors:      errs,
		GeneratedAt: time.Now().UTC(),
	}
	if summary != nil {
		r.Summary = *summary
	}
	if r.Errors == nil {
		r.Errors = []FileError{}
	}
	for _, rec := range corrupted {
		r.Corrupted = append(r.Corrupted, Entry{
			Key:          rec.Key.String(),
			Path:         rec.Path.String(),
			Hash:         rec.Hash,
			ExpectedHash: rec.ExpectedHash,
			Size:         rec.Size,
			LastModified: rec.LastModified.UTC(),
		})
	}
	return r
}

// FileName returns the local file name of the report.
func (r *Report) FileName() string {
	return fmt.Sprintf("scan_report_%d.json", r.GeneratedAt.Unix())
}

// WriteFile writes the report as indented JSON into dir and returns its path.
func WriteFile(dir string, r *Report) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}

	path := filepath.Join(dir, r.FileName())
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}

// Collector gathers per-file failures from scan progress and forwards every
// update to an optional downstream sink.
type Collector struct {
	mu   sync.Mutex
	errs []FileError
	next reconcile.ProgressSink
}

// NewCollector creates a collector forwarding to next, which may be nil.
func NewCollector(next reconcile.ProgressSink) *Collector {
	return &Collector{next: next}
}

// Sink returns the progress sink to hand to the engine.
func (c *Collector) Sink() reconcile.ProgressSink {
	return func(p reconcile.ScanProgress) {
		if p.Err != nil {
			c.mu.Lock()
			c.errs = append(c.errs, FileError{Path: p.CurrentPath, Error: p.Err.Error()})
			c.mu.Unlock()
		}
		if c.next != nil {
			c.next(p)
		}
	}
}

// Errors returns a copy of the collected failures.
func (c *Collector) Errors() []FileError {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]FileError, len(c.errs))
	copy(out, c.errs)
	return out
}
