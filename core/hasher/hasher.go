package hasher

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"sync"

	"bitrot-detector/core/paths"
)

// ErrHashUnavailable is returned when a file's content cannot be read.
var ErrHashUnavailable = errors.New("hash unavailable")

// DefaultBufferSize is the read buffer used when none is configured.
const DefaultBufferSize = 1 << 20

// Hasher computes a content digest for the file at path.
type Hasher interface {
	Hash(path string) (string, error)
}

// SHA256 hashes files with SHA-256.
type SHA256 struct {
	pool sync.Pool
}

// NewSHA256 creates a hasher reading in chunks of bufferSize bytes.
func NewSHA256(bufferSize int) *SHA256 {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &SHA256{
		pool: sync.Pool{
			New: func() any {
				b := make([]byte, bufferSize)
				return &b
			},
		},
	}
}

// Hash returns the lowercase hex SHA-256 of the file's content.
func (h *SHA256) Hash(path string) (string, error) {
	f, err := paths.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrHashUnavailable, path, err)
	}
	defer f.Close()

	sum, err := h.Sum(f)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrHashUnavailable, path, err)
	}
	return sum, nil
}

// Sum returns the lowercase hex SHA-256 of everything read from r.
func (h *SHA256) Sum(r io.Reader) (string, error) {
	buf := h.pool.Get().(*[]byte)
	defer h.pool.Put(buf)

	d := sha256.New()
	if _, err := io.CopyBuffer(d, r, *buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(d.Sum(nil)), nil
}
