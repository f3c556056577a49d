package paths

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrInvalidVolumeRoot is returned when a scan root cannot be used.
var ErrInvalidVolumeRoot = errors.New("invalid volume root")

// NormalizedPath is a cleaned path using '/' as separator.
type NormalizedPath string

// Normalize converts an OS path into its canonical stored form.
func Normalize(raw string) NormalizedPath {
	if raw == "" {
		return ""
	}
	return NormalizedPath(filepath.ToSlash(filepath.Clean(raw)))
}

// String returns the normalized form.
func (p NormalizedPath) String() string {
	return string(p)
}

// Native returns the path with the host separator.
func (p NormalizedPath) Native() string {
	return filepath.FromSlash(string(p))
}

// Base returns the last element of the path.
func (p NormalizedPath) Base() string {
	s := string(p)
	if i := strings.LastIndexByte(s, '/'); i >= 0 && i < len(s)-1 {
		return s[i+1:]
	}
	return s
}

// ValidateVolumeRoot resolves raw to an absolute, symlink-free directory that
// can be listed.
func ValidateVolumeRoot(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", fmt.Errorf("%w: empty path", ErrInvalidVolumeRoot)
	}

	abs, err := filepath.Abs(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrInvalidVolumeRoot, raw, err)
	}

	// WalkDir does not descend a symlinked root
	abs, err = filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrInvalidVolumeRoot, raw, err)
	}

	info, err := os.Stat(Long(abs))
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrInvalidVolumeRoot, raw, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s is not a directory", ErrInvalidVolumeRoot, raw)
	}

	dir, err := os.Open(Long(abs))
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrInvalidVolumeRoot, raw, err)
	}
	defer dir.Close()

	if _, err := dir.Readdirnames(1); err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("%w: %s: %w", ErrInvalidVolumeRoot, raw, err)
	}

	return abs, nil
}
