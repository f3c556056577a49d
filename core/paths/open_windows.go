//go:build windows

package paths

import (
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/windows"
)

const (
	longPrefix = `\\?\`
	uncPrefix  = `\\?\UNC\`
)

// Long returns the extended-length form of an absolute path.
func Long(path string) string {
	if strings.HasPrefix(path, longPrefix) || !filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, `\\`) {
		return uncPrefix + path[2:]
	}
	return longPrefix + filepath.Clean(path)
}

// Open opens path for reading using its extended-length form.
func Open(path string) (*os.File, error) {
	return os.Open(Long(path))
}

// Stat returns file metadata using the extended-length form of path.
func Stat(path string) (os.FileInfo, error) {
	return os.Stat(Long(path))
}

// ReadDir lists a directory through its long path form.
func ReadDir(path string) ([]os.DirEntry, error) {
	return os.ReadDir(Long(path))
}

// Hide sets the hidden attribute on dir.
func Hide(dir string) error {
	p, err := windows.UTF16PtrFromString(Long(dir))
	if err != nil {
		return err
	}
	attrs, err := windows.GetFileAttributes(p)
	if err != nil {
		return &os.PathError{Op: "GetFileAttributes", Path: dir, Err: err}
	}
	if attrs&windows.FILE_ATTRIBUTE_HIDDEN != 0 {
		return nil
	}
	if err := windows.SetFileAttributes(p, attrs|windows.FILE_ATTRIBUTE_HIDDEN); err != nil {
		return &os.PathError{Op: "SetFileAttributes", Path: dir, Err: err}
	}
	return nil
}
