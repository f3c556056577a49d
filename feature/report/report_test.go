package report

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"bitrot-detector/core/fileid"
	"bitrot-detector/core/paths"
	"bitrot-detector/core/records"
	"bitrot-detector/core/reconcile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSummary() *reconcile.Summary {
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &reconcile.Summary{
		ScanID:    "scan-1",
		Root:      "/data",
		Started:   started,
		Finished:  started.Add(time.Minute),
		Total:     3,
		New:       1,
		Corrupted: 1,
		Unchanged: 1,
	}
}

func TestBuild(t *testing.T) {
	corrupted := []records.Record{{
		Key:          fileid.Key{Volume: 1, FileID: 0xff},
		Path:         paths.NormalizedPath("/data/a.txt"),
		Hash:         "bad",
		ExpectedHash: "good",
		Size:         4,
		LastModified: time.Unix(100, 0),
		Corrupted:    true,
	}}

	r := Build(sampleSummary(), corrupted, nil)

	assert.Equal(t, "scan-1", r.Summary.ScanID)
	require.Len(t, r.Corrupted, 1)
	assert.Equal(t, "1:ff", r.Corrupted[0].Key)
	assert.Equal(t, "/data/a.txt", r.Corrupted[0].Path)
	assert.Equal(t, "good", r.Corrupted[0].ExpectedHash)
	assert.NotNil(t, r.Errors)
	assert.False(t, r.GeneratedAt.IsZero())
}

func TestWriteFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	r := Build(sampleSummary(), nil, []FileError{{Path: "/data/b.txt", Error: "permission denied"}})
	r.GeneratedAt = time.Unix(1700000000, 0).UTC()

	path, err := WriteFile(dir, r)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "scan_report_1700000000.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded Report
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, 3, decoded.Summary.Total)
	assert.Empty(t, decoded.Corrupted)
	require.Len(t, decoded.Errors, 1)
	assert.Equal(t, "permission denied", decoded.Errors[0].Error)
}

func TestCollector(t *testing.T) {
	var forwarded int
	c := NewCollector(func(reconcile.ScanProgress) { forwarded++ })
	sink := c.Sink()

	sink(reconcile.ScanProgress{Phase: reconcile.PhaseEnumerating})
	sink(reconcile.ScanProgress{CurrentPath: "/data/a.txt", Outcome: reconcile.OutcomeNew})
	sink(reconcile.ScanProgress{CurrentPath: "/data/b.txt", Outcome: reconcile.OutcomeFailed, Err: errors.New("boom")})

	assert.Equal(t, 3, forwarded)
	assert.Equal(t, []FileError{{Path: "/data/b.txt", Error: "boom"}}, c.Errors())
}

func TestCollector_NoDownstream(t *testing.T) {
	c := NewCollector(nil)
	c.Sink()(reconcile.ScanProgress{Err: errors.New("x")})
	assert.Len(t, c.Errors(), 1)
}
