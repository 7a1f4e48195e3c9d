//go:build linux

package cgroup

import (
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/go-kit/log"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveAgainstRealDirectories(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "kubepods.slice", "pod-1")
	require.NoError(t, os.MkdirAll(target, 0o755))
	require.NoError(t, os.Symlink(root, filepath.Join(root, "kubepods.slice", "loop")))

	fi, err := os.Stat(target)
	require.NoError(t, err)
	ino := fi.Sys().(*syscall.Stat_t).Ino

	r := NewResolver(afero.NewOsFs(), root, log.NewNopLogger())
	path, err := r.Resolve(ino)
	require.NoError(t, err)
	assert.Equal(t, target, path)

	_, err = r.Resolve(ino + 1_000_000)
	assert.ErrorIs(t, err, ErrNotFound)
}
