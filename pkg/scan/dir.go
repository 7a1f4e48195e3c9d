package scan

import (
	"os"
	"path/filepath"

	"github.com/go-kit/log/level"
	pkgerrors "github.com/pkg/errors"

	"github.com/srodi/showpagemap/pkg/fswalk"
	"github.com/srodi/showpagemap/pkg/pagemap"
	"github.com/srodi/showpagemap/pkg/residency"
)

// probeFile allows tests to replace the mmap/mincore probe.
var probeFile = residency.Probe

// ScanDir probes every regular file below root for page cache residency and
// decodes the pagemap entries of its mapping in this process. Pages are
// faulted in as a side effect, see package residency. Every open, stat, map
// or mincore failure is returned and should end the run, as is an unreadable
// directory anywhere in the tree.
func (s *Session) ScanDir(root string) error {
	pm, err := s.fs.Open(filepath.Join(s.opts.ProcRoot, "self", "pagemap"))
	if err != nil {
		return pkgerrors.Wrap(err, "open own pagemap")
	}
	defer pm.Close()

	reader := pagemap.NewReader(pm, uint64(s.opts.PageSize))
	files := 0
	err = fswalk.Walk(s.fs, root, func(path string, fi os.FileInfo, _ uint64) error {
		if !fi.Mode().IsRegular() {
			return nil
		}
		files++
		return s.scanFile(reader, path)
	})
	if err != nil {
		return err
	}
	level.Debug(s.logger).Log("msg", "scanned directory", "root", root, "files", files, "aborted_ranges", reader.Aborted())
	return nil
}

func (s *Session) scanFile(reader *pagemap.Reader, path string) error {
	m, err := probeFile(path, s.opts.PageSize)
	if err != nil {
		return err
	}
	defer m.Close()

	rng := m.Range()
	if err := reader.WalkRange(s.logger, rng, s.visitor(rng.Tag)); err != nil {
		return err
	}
	if s.hooks.File != nil {
		s.hooks.File(m.Result())
	}
	return nil
}
