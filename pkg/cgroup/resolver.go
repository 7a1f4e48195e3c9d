// Package cgroup maps memory cgroup inode numbers, as reported by
// /proc/kpagecgroup, back to directories under the cgroup mount.
package cgroup

import (
	"errors"
	"os"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/spf13/afero"

	"github.com/srodi/showpagemap/pkg/fswalk"
)

// DefaultMount is where cgroup v2 is normally mounted.
const DefaultMount = "/sys/fs/cgroup/"

// NotFoundPlaceholder is rendered in reports for an owner with no directory.
const NotFoundPlaceholder = "[not found]"

// ErrNotFound means no directory under the mount has the requested inode, or
// the walk hit an unreadable entry before finding one.
var ErrNotFound = errors.New("cgroup not found")

// Resolver walks the mount on every lookup. Nothing is cached: it runs once
// per distinct owner at report time, never per page.
type Resolver struct {
	fs     afero.Fs
	mount  string
	logger log.Logger
}

// NewResolver resolves inodes against the hierarchy at mount.
func NewResolver(fs afero.Fs, mount string, logger log.Logger) *Resolver {
	if mount == "" {
		mount = DefaultMount
	}
	return &Resolver{fs: fs, mount: mount, logger: logger}
}

// Resolve returns the first directory, in walk order, whose inode is inode.
// Failing to open the mount itself is returned as an error; anything else that
// prevents a match yields ErrNotFound.
func (r *Resolver) Resolve(inode uint64) (string, error) {
	var match string
	err := fswalk.Walk(r.fs, r.mount, func(path string, fi os.FileInfo, ino uint64) error {
		if fi.IsDir() && ino == inode {
			match = path
			return fswalk.SkipAll
		}
		return nil
	})
	switch {
	case errors.Is(err, fswalk.ErrUnreadable):
		level.Debug(r.logger).Log("msg", "cgroup walk aborted", "inode", inode, "err", err)
		return "", ErrNotFound
	case err != nil:
		return "", err
	case match == "":
		return "", ErrNotFound
	}
	return match, nil
}

// Name is Resolve with ErrNotFound rendered as NotFoundPlaceholder.
func (r *Resolver) Name(inode uint64) (string, error) {
	path, err := r.Resolve(inode)
	if errors.Is(err, ErrNotFound) {
		return NotFoundPlaceholder, nil
	}
	return path, err
}
