package fileid

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrIdentityUnavailable is returned when a file's identity cannot be read.
var ErrIdentityUnavailable = errors.New("identity unavailable")

// Key is the stable identity of a file: volume serial plus file id.
type Key struct {
	Volume uint64
	FileID uint64
}

// String renders the key as "volume:fileid" in hex.
func (k Key) String() string {
	return strconv.FormatUint(k.Volume, 16) + ":" + strconv.FormatUint(k.FileID, 16)
}

// ParseKey parses the String form of a key.
func ParseKey(s string) (Key, error) {
	vol, id, ok := strings.Cut(s, ":")
	if !ok {
		return Key{}, fmt.Errorf("invalid identity key %q", s)
	}
	v, err := strconv.ParseUint(vol, 16, 64)
	if err != nil {
		return Key{}, fmt.Errorf("invalid volume in identity key %q: %w", s, err)
	}
	f, err := strconv.ParseUint(id, 16, 64)
	if err != nil {
		return Key{}, fmt.Errorf("invalid file id in identity key %q: %w", s, err)
	}
	return Key{Volume: v, FileID: f}, nil
}

// Resolver maps a path to its identity key.
type Resolver interface {
	Resolve(path string) (Key, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(path string) (Key, error)

// Resolve calls f(path).
func (f ResolverFunc) Resolve(path string) (Key, error) {
	return f(path)
}

// NewResolver returns the resolver for the host operating system.
func NewResolver() Resolver {
	return osResolver{}
}

func unavailable(path string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrIdentityUnavailable, path, err)
}

// MarshalText encodes the key in its String form.
func (k Key) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a key produced by MarshalText.
func (k *Key) UnmarshalText(text []byte) error {
	parsed, err := ParseKey(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
