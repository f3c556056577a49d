// Package hasher computes content digests of files.
//
// SHA256 streams a file through a pooled buffer and returns the lowercase hex
// digest. Any open or read failure, including a file that vanishes while it
// is being read, is reported as ErrHashUnavailable so that callers can skip
// the file and continue.
package hasher
