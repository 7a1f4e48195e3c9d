// Package fswalk is a depth-first directory walk with an explicit stack.
//
// Hidden entries (leading '.') are skipped, symlinks are never followed and a
// directory whose inode was already visited is not entered again, so cycles
// and deep trees cannot exhaust the goroutine stack.
package fswalk

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"github.com/spf13/afero"
)

// SkipAll stops the walk without an error when returned by a Visitor.
var SkipAll = errors.New("skip everything")

// ErrUnreadable marks a failure below the root: a nested directory that could
// not be listed or an entry whose inode could not be read.
var ErrUnreadable = errors.New("unreadable entry")

// Visitor is called for every non-hidden, non-symlink entry in depth-first
// order. inode is only set for directories.
type Visitor func(path string, fi os.FileInfo, inode uint64) error

type frame struct {
	dir     string
	entries []os.FileInfo
	next    int
}

// Walk visits everything below root. A failure to list root itself is returned
// wrapped as is; failures further down carry ErrUnreadable.
func Walk(fs afero.Fs, root string, visit Visitor) error {
	entries, err := afero.ReadDir(fs, root)
	if err != nil {
		return pkgerrors.Wrapf(err, "opening %s", root)
	}
	visited := make(map[uint64]struct{})
	if fi, err := fs.Stat(root); err == nil {
		if ino, err := InodeOf(fs, root, fi); err == nil {
			visited[ino] = struct{}{}
		}
	}

	stack := []*frame{{dir: root, entries: entries}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		if top.next >= len(top.entries) {
			stack = stack[:len(stack)-1]
			continue
		}
		fi := top.entries[top.next]
		top.next++

		name := fi.Name()
		if strings.HasPrefix(name, ".") || fi.Mode()&os.ModeSymlink != 0 {
			continue
		}
		path := filepath.Join(top.dir, name)

		if !fi.IsDir() {
			if err := visit(path, fi, 0); err != nil {
				return stopped(err)
			}
			continue
		}

		ino, err := InodeOf(fs, path, fi)
		if err != nil {
			return unreadable(path, err)
		}
		if err := visit(path, fi, ino); err != nil {
			return stopped(err)
		}
		if _, seen := visited[ino]; seen {
			continue
		}
		visited[ino] = struct{}{}

		children, err := afero.ReadDir(fs, path)
		if err != nil {
			return unreadable(path, err)
		}
		stack = append(stack, &frame{dir: path, entries: children})
	}
	return nil
}

func stopped(err error) error {
	if errors.Is(err, SkipAll) {
		return nil
	}
	return err
}

func unreadable(path string, err error) error {
	return pkgerrors.Wrapf(errors.Join(ErrUnreadable, err), "walking %s", path)
}
