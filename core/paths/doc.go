// Package paths holds the filesystem path helpers shared by the scanner.
//
// # Normalized paths
//
// Paths are persisted and compared in one canonical form: cleaned, with
// forward slashes as separators regardless of the host OS. The NormalizedPath
// type can only be produced by Normalize, so a raw OS path never ends up in
// the record store by accident.
//
// # Long paths
//
// Open and Long allow files beyond the classic path length limits to be
// read. On Windows this is the \\?\ prefix; on Unix a path the kernel rejects
// with ENAMETOOLONG is walked component by component with openat.
//
// # Usage
//
//	root, err := paths.ValidateVolumeRoot("/mnt/archive")
//	p := paths.Normalize(filepath.Join(root, "photos", "a.jpg"))
//	f, err := paths.Open(p.Native())
package paths
