//go:build !windows

package paths

import (
	"errors"
	"os"
	"sort"
	"strings"

	"golang.org/x/sys/unix"
)

// Long returns path unchanged; Unix has no long path prefix.
func Long(path string) string {
	return path
}

// Open opens path for reading, walking it with openat when it exceeds PATH_MAX.
func Open(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err == nil || !errors.Is(err, unix.ENAMETOOLONG) {
		return f, err
	}

	var out *os.File
	err = At(path, func(dirfd int, name string) error {
		fd, err := unix.Openat(dirfd, name, unix.O_RDONLY|unix.O_CLOEXEC, 0)
		if err != nil {
			return &os.PathError{Op: "openat", Path: path, Err: err}
		}
		out = os.NewFile(uintptr(fd), path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Stat returns file metadata, falling back to an openat walk beyond PATH_MAX.
func Stat(path string) (os.FileInfo, error) {
	info, err := os.Stat(path)
	if err == nil || !errors.Is(err, unix.ENAMETOOLONG) {
		return info, err
	}
	f, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.Stat()
}

// ReadDir lists a directory, walking it with openat when it exceeds PATH_MAX.
func ReadDir(path string) ([]os.DirEntry, error) {
	entries, err := os.ReadDir(path)
	if err == nil || !errors.Is(err, unix.ENAMETOOLONG) {
		return entries, err
	}

	err = At(strings.TrimRight(path, "/"), func(dirfd int, name string) error {
		fd, err := unix.Openat(dirfd, name, unix.O_RDONLY|unix.O_DIRECTORY|unix.O_CLOEXEC, 0)
		if err != nil {
			return &os.PathError{Op: "openat", Path: path, Err: err}
		}
		dir := os.NewFile(uintptr(fd), path)
		defer dir.Close()
		entries, err = dir.ReadDir(-1)
		return err
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	return entries, nil
}

// At resolves the parent directory of path one component at a time and calls
// fn with a descriptor of that directory and the final element. The
// descriptor is only valid for the duration of fn.
func At(path string, fn func(dirfd int, name string) error) error {
	parts := strings.Split(path, "/")
	name := parts[len(parts)-1]
	if name == "" {
		return &os.PathError{Op: "openat", Path: path, Err: unix.EINVAL}
	}

	dirfd := unix.AT_FDCWD
	if strings.HasPrefix(path, "/") {
		fd, err := unix.Open("/", unix.O_RDONLY|unix.O_DIRECTORY|unix.O_CLOEXEC, 0)
		if err != nil {
			return &os.PathError{Op: "open", Path: "/", Err: err}
		}
		dirfd = fd
	}
	defer func() {
		if dirfd != unix.AT_FDCWD {
			unix.Close(dirfd)
		}
	}()

	for _, part := range parts[:len(parts)-1] {
		if part == "" || part == "." {
			continue
		}
		fd, err := unix.Openat(dirfd, part, unix.O_RDONLY|unix.O_DIRECTORY|unix.O_CLOEXEC, 0)
		if err != nil {
			return &os.PathError{Op: "openat", Path: path, Err: err}
		}
		if dirfd != unix.AT_FDCWD {
			unix.Close(dirfd)
		}
		dirfd = fd
	}

	return fn(dirfd, name)
}

// Hide is a no-op; dot-prefixed directories are already hidden.
func Hide(dir string) error {
	return nil
}
