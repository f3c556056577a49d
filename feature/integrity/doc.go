// Package integrity exposes the record store of a volume over HTTP.
//
// The Service is bound to one volume root and its database. It reports the
// last scan and record counts, lists corrupted files, clears corruption
// flags and runs scans. Concurrent scan requests are collapsed into one run
// whose summary every caller receives.
//
// # HTTP Endpoints
//
//   - GET /integrity/status : last scan metadata and counts.
//   - GET /integrity/corrupted : corrupted records.
//   - POST /integrity/scan : runs a scan (supports ?verify=true).
//   - POST /integrity/records/:key/clear : clears a corruption flag.
//   - GET /integrity/reports : archived scan reports.
//   - GET /integrity/reports/:id : one archived report.
package integrity
