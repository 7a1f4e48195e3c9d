// Package scan drives one inspection run. A Session owns every piece of
// mutable state (frame table handles, totals, per-owner counts) so nothing is
// process-global; it is single-threaded and not safe for concurrent use.
package scan

import (
	"path/filepath"
	"strconv"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	pkgerrors "github.com/pkg/errors"
	"github.com/spf13/afero"

	"github.com/srodi/showpagemap/pkg/kpage"
	"github.com/srodi/showpagemap/pkg/pagemap"
	"github.com/srodi/showpagemap/pkg/procinfo"
	"github.com/srodi/showpagemap/pkg/stats"
	"github.com/srodi/showpagemap/pkg/types"
	"github.com/srodi/showpagemap/pkg/vma"
)

// lookupTarget allows tests to stub per-process metadata that normally hits /proc.
var lookupTarget = procinfo.Lookup

// Options select which per-frame lookups run for every page.
type Options struct {
	Details  bool
	Refs     bool
	Cgroup   bool
	Names    bool
	PageSize int
	ProcRoot string
}

// Hooks receive output as the scan progresses. Any of them may be nil.
type Hooks struct {
	// Page is called for every decoded page, in page order within a range and
	// ranges in input order, when Options.Details is set.
	Page func(types.PageRecord)
	// File is called after each file is probed in directory mode.
	File func(types.FileResidency)
	// Target is called before a process is scanned.
	Target func(types.TargetInfo)
}

// Session accumulates results across every target of a run.
type Session struct {
	fs     afero.Fs
	opts   Options
	hooks  Hooks
	logger log.Logger

	frames *kpage.Source
	agg    *stats.Aggregator
}

// NewSession prepares empty totals. fs is used for procfs access and, in
// directory mode, for walking the tree.
func NewSession(fs afero.Fs, opts Options, hooks Hooks, logger log.Logger) *Session {
	return &Session{
		fs:     fs,
		opts:   opts,
		hooks:  hooks,
		logger: logger,
		frames: kpage.NewSource(fs, opts.ProcRoot, logger),
		agg:    stats.NewAggregator(opts.Cgroup),
	}
}

// Aggregator exposes the totals for reporting once all targets are done.
func (s *Session) Aggregator() *stats.Aggregator {
	return s.agg
}

// Close releases the frame tables.
func (s *Session) Close() error {
	return s.frames.Close()
}

// ScanPID walks every mapping of pid. Failing to open its maps or pagemap
// file is returned and should end the run.
func (s *Session) ScanPID(pid int) error {
	dir := filepath.Join(s.opts.ProcRoot, strconv.Itoa(pid))

	maps, err := s.fs.Open(filepath.Join(dir, "maps"))
	if err != nil {
		return pkgerrors.Wrapf(err, "open maps for pid %d", pid)
	}
	defer maps.Close()

	pm, err := s.fs.Open(filepath.Join(dir, "pagemap"))
	if err != nil {
		return pkgerrors.Wrapf(err, "open pagemap for pid %d", pid)
	}
	defer pm.Close()

	if s.hooks.Target != nil {
		s.hooks.Target(lookupTarget(s.opts.ProcRoot, pid))
	}

	reader := pagemap.NewReader(pm, uint64(s.opts.PageSize))
	ex := vma.NewExtractor(maps, s.opts.Names)
	ranges := 0
	for ex.Next() {
		rng := ex.Range()
		ranges++
		if err := reader.WalkRange(s.logger, rng, s.visitor(rng.Tag)); err != nil {
			return err
		}
	}
	if err := ex.Err(); err != nil {
		return pkgerrors.Wrapf(err, "pid %d", pid)
	}
	level.Debug(s.logger).Log("msg", "scanned process", "pid", pid, "ranges", ranges, "aborted_ranges", reader.Aborted())
	return nil
}

func (s *Session) visitor(tag string) func(types.PageEntry) error {
	return func(entry types.PageEntry) error {
		attrs, err := s.frameAttributes(entry)
		if err != nil {
			return err
		}
		s.agg.Record(entry, attrs.ShareCount, attrs.OwnerID)
		if s.opts.Details && s.hooks.Page != nil {
			s.hooks.Page(types.PageRecord{Entry: entry, Frame: attrs, Tag: tag})
		}
		return nil
	}
}

// frameAttributes runs only the lookups that were asked for, and only for
// present pages: the frame number of anything else is not a PFN.
func (s *Session) frameAttributes(entry types.PageEntry) (types.FrameAttributes, error) {
	attrs := types.FrameAttributes{OwnerID: types.UnknownOwner}
	if s.opts.Refs && entry.Present && entry.FrameNumber != 0 {
		attrs.ShareCount = s.frames.ShareCount(entry.FrameNumber)
	}
	if s.opts.Cgroup {
		attrs.OwnerID = 0
		if entry.Present {
			id, err := s.frames.OwnerID(entry.FrameNumber)
			if err != nil {
				return attrs, err
			}
			attrs.OwnerID = id
		}
	}
	return attrs, nil
}
