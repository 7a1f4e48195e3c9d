package kpage

import (
	"encoding/binary"
	"testing"

	"github.com/go-kit/log"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func table(values ...uint64) []byte {
	buf := make([]byte, entrySize*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint64(buf[i*entrySize:], v)
	}
	return buf
}

func newFs(t *testing.T, files map[string][]byte) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for name, data := range files {
		require.NoError(t, afero.WriteFile(fs, name, data, 0o444))
	}
	return fs
}

func TestShareCount(t *testing.T) {
	fs := newFs(t, map[string][]byte{"/proc/kpagecount": table(0, 1, 5)})
	src := NewSource(fs, "/proc", log.NewNopLogger())
	t.Cleanup(func() { _ = src.Close() })

	assert.Equal(t, uint64(5), src.ShareCount(2))
	assert.Equal(t, uint64(1), src.ShareCount(1))
	assert.Zero(t, src.ShareCount(99), "read past the table yields 0")
}

func TestShareCountOpenFailureIsAbsorbed(t *testing.T) {
	src := NewSource(afero.NewMemMapFs(), "/proc", log.NewNopLogger())
	assert.Zero(t, src.ShareCount(1))
	assert.Equal(t, failed, src.countState)

	// The table appearing later does not matter: the open is not retried.
	fs := src.fs
	require.NoError(t, afero.WriteFile(fs, "/proc/kpagecount", table(3, 3), 0o444))
	assert.Zero(t, src.ShareCount(1))
}

func TestOwnerID(t *testing.T) {
	fs := newFs(t, map[string][]byte{"/proc/kpagecgroup": table(0, 4242, 17)})
	src := NewSource(fs, "/proc", log.NewNopLogger())
	t.Cleanup(func() { _ = src.Close() })

	id, err := src.OwnerID(1)
	require.NoError(t, err)
	assert.Equal(t, int64(4242), id)

	id, err = src.OwnerID(1 << 20)
	require.NoError(t, err, "per-frame read failure is absorbed")
	assert.Zero(t, id)
}

func TestOwnerIDOpenFailureIsFatal(t *testing.T) {
	src := NewSource(afero.NewMemMapFs(), "/proc", log.NewNopLogger())
	_, err := src.OwnerID(1)
	assert.ErrorIs(t, err, ErrOwnerTableUnavailable)
}

func TestCloseResetsHandles(t *testing.T) {
	fs := newFs(t, map[string][]byte{
		"/proc/kpagecount":  table(2),
		"/proc/kpagecgroup": table(9),
	})
	src := NewSource(fs, "/proc", log.NewNopLogger())
	assert.Equal(t, uint64(2), src.ShareCount(0))
	_, err := src.OwnerID(0)
	require.NoError(t, err)

	require.NoError(t, src.Close())
	assert.Nil(t, src.count)
	assert.Nil(t, src.cgroup)
	assert.Equal(t, uint64(2), src.ShareCount(0), "reopens lazily after close")
}
