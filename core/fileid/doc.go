// Package fileid resolves the stable on-disk identity of a file.
//
// A Key pairs the volume serial with the filesystem's stable file id (the
// inode number on Unix, the NTFS file index on Windows). The pair survives
// renames and moves within a volume and is shared by hard links. Resolution
// reads metadata only, never file content, and nothing is cached.
//
// # Usage
//
//	r := fileid.NewResolver()
//	key, err := r.Resolve("/mnt/archive/a.txt")
//	if errors.Is(err, fileid.ErrIdentityUnavailable) {
//	    // report and skip the file
//	}
package fileid
