//go:build !windows

package fileid

import (
	"errors"

	"bitrot-detector/core/paths"

	"golang.org/x/sys/unix"
)

type osResolver struct{}

// Resolve stats path and returns its device and inode numbers.
func (osResolver) Resolve(path string) (Key, error) {
	var st unix.Stat_t
	err := unix.Stat(path, &st)
	if errors.Is(err, unix.ENAMETOOLONG) {
		err = paths.At(path, func(dirfd int, name string) error {
			return unix.Fstatat(dirfd, name, &st, 0)
		})
	}
	if err != nil {
		return Key{}, unavailable(path, err)
	}
	return Key{Volume: uint64(st.Dev), FileID: uint64(st.Ino)}, nil
}
