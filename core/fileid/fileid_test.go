package fileid_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"bitrot-detector/core/fileid"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_StableAcrossRename(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(a, []byte("hello"), 0644))

	r := fileid.NewResolver()
	before, err := r.Resolve(a)
	require.NoError(t, err)

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0755))
	b := filepath.Join(dir, "sub", "b.txt")
	require.NoError(t, os.Rename(a, b))

	after, err := r.Resolve(b)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestResolve_StableAcrossContentChange(t *testing.T) {
	f := filepath.Join(t.TempDir(), "a.txt")
	require.NoError(t, os.WriteFile(f, []byte("v1"), 0644))

	r := fileid.NewResolver()
	before, err := r.Resolve(f)
	require.NoError(t, err)

	fh, err := os.OpenFile(f, os.O_WRONLY|os.O_TRUNC, 0)
	require.NoError(t, err)
	_, err = fh.WriteString("version two")
	require.NoError(t, err)
	require.NoError(t, fh.Close())

	after, err := r.Resolve(f)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestResolve_HardLinksShareKey(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	require.NoError(t, os.WriteFile(a, []byte("x"), 0644))
	if err := os.Link(a, b); err != nil {
		t.Skipf("hard links unsupported: %v", err)
	}

	r := fileid.NewResolver()
	ka, err := r.Resolve(a)
	require.NoError(t, err)
	kb, err := r.Resolve(b)
	require.NoError(t, err)
	assert.Equal(t, ka, kb)
}

func TestResolve_DistinctFiles(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	require.NoError(t, os.WriteFile(a, []byte("x"), 0644))
	require.NoError(t, os.WriteFile(b, []byte("x"), 0644))

	r := fileid.NewResolver()
	ka, err := r.Resolve(a)
	require.NoError(t, err)
	kb, err := r.Resolve(b)
	require.NoError(t, err)
	assert.Equal(t, ka.Volume, kb.Volume)
	assert.NotEqual(t, ka.FileID, kb.FileID)
}

func TestResolve_Missing(t *testing.T) {
	_, err := fileid.NewResolver().Resolve(filepath.Join(t.TempDir(), "gone.txt"))
	assert.ErrorIs(t, err, fileid.ErrIdentityUnavailable)
}

func TestKey_StringRoundTrip(t *testing.T) {
	k := fileid.Key{Volume: 0xfd01, FileID: 0xffffffffffffffff}
	assert.Equal(t, "fd01:ffffffffffffffff", k.String())

	parsed, err := fileid.ParseKey(k.String())
	require.NoError(t, err)
	assert.Equal(t, k, parsed)
}

func TestParseKey_Invalid(t *testing.T) {
	for _, s := range []string{"", "abc", "zz:1", "1:zz"} {
		_, err := fileid.ParseKey(s)
		assert.Error(t, err, s)
	}
}

func TestKey_JSON(t *testing.T) {
	type wrapper struct {
		Key fileid.Key `json:"key"`
	}
	data, err := json.Marshal(wrapper{Key: fileid.Key{Volume: 1, FileID: 255}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"key":"1:ff"}`, string(data))

	var back wrapper
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, fileid.Key{Volume: 1, FileID: 255}, back.Key)
}
