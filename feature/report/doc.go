// Package report turns scan results into JSON reports.
//
// A Report combines the scan summary, the records currently flagged as
// corrupted and the per-file failures gathered by a Collector. Reports are
// written to a local directory with WriteFile and, when object storage is
// enabled, archived by an Archiver under <prefix>/<scan id>.json. The
// Archiver can list, fetch and prune archived reports.
package report
