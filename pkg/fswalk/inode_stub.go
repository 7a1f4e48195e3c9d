//go:build !linux
// +build !linux

package fswalk

import (
	"errors"
	"os"

	"github.com/spf13/afero"
)

var errUnsupported = errors.New("inode lookup requires linux")

// InodeOf is a placeholder on non-Linux platforms.
var InodeOf = func(fs afero.Fs, path string, fi os.FileInfo) (uint64, error) {
	return 0, errUnsupported
}
