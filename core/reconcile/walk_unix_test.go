//go:build !windows

package reconcile

import (
	"context"
	"strings"
	"testing"

	"bitrot-detector/core/fileid"
	"bitrot-detector/core/hasher"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// deepTree creates name below enough nested directories that its path
// exceeds PATH_MAX, returning the full path.
func deepTree(t *testing.T, root, name, content string) string {
	t.Helper()
	segment := strings.Repeat("d", 200)

	dirfd, err := unix.Open(root, unix.O_RDONLY|unix.O_DIRECTORY, 0)
	require.NoError(t, err)
	full := root
	for len(full) < 4200 {
		require.NoError(t, unix.Mkdirat(dirfd, segment, 0755))
		next, err := unix.Openat(dirfd, segment, unix.O_RDONLY|unix.O_DIRECTORY, 0)
		require.NoError(t, err)
		unix.Close(dirfd)
		dirfd = next
		full = full + "/" + segment
	}
	fd, err := unix.Openat(dirfd, name, unix.O_CREAT|unix.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = unix.Write(fd, []byte(content))
	require.NoError(t, err)
	unix.Close(fd)
	unix.Close(dirfd)

	return full + "/" + name
}

func TestEnumerate_DirectoriesBeyondPathLimit(t *testing.T) {
	v := newVolume(t)
	v.write("top.txt", "top", t1)
	deep := deepTree(t, v.root, "deep.txt", "deep")

	e := New(v.store(), fileid.NewResolver(), hasher.NewSHA256(0), zap.NewNop(), Options{StoreDir: DefaultStoreDir})
	var walkErrs []error
	files, err := e.enumerate(context.Background(), v.root, func(_ string, err error) {
		walkErrs = append(walkErrs, err)
	})
	require.NoError(t, err)
	assert.Empty(t, walkErrs)
	assert.Contains(t, files, deep)
	assert.Contains(t, files, v.path("top.txt"))
}

func TestScan_DirectoriesBeyondPathLimit(t *testing.T) {
	v := newVolume(t)
	deep := deepTree(t, v.root, "deep.txt", "deep")

	summary, store := v.scan(Options{})
	assert.Equal(t, 1, summary.Total)
	assert.Equal(t, 1, summary.New)
	assert.Equal(t, 0, summary.Errors)

	key, err := fileid.NewResolver().Resolve(deep)
	require.NoError(t, err)
	rec, ok := store.Lookup(key)
	require.True(t, ok)
	assert.Equal(t, sha("deep"), rec.Hash)
}
