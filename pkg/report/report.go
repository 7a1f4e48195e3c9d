// Package report renders scan results as text, YAML, or Prometheus text
// exposition.
package report

import (
	"fmt"
	"io"
	"sync"

	"github.com/dustin/go-humanize"

	"github.com/srodi/showpagemap/pkg/procinfo"
	"github.com/srodi/showpagemap/pkg/types"
)

// Output formats.
const (
	FormatText       = "text"
	FormatYAML       = "yaml"
	FormatPrometheus = "prometheus"
)

// totalMemoryBytes allows tests to stub the MemTotal lookup that normally hits /proc.
var totalMemoryBytes = procinfo.TotalMemoryBytes

// Reporter receives results while a scan runs and renders the summary at the
// end. In text mode per-target headers, detail lines and per-file lines are
// written as they arrive; structured formats buffer them for Render.
type Reporter struct {
	out      io.Writer
	format   string
	pageSize int
	procRoot string

	targets []types.TargetInfo
	files   []types.FileResidency

	totalMemOnce sync.Once
	totalMem     uint64
}

// New returns a Reporter writing format to out.
func New(out io.Writer, format string, pageSize int, procRoot string) *Reporter {
	if format == "" {
		format = FormatText
	}
	return &Reporter{out: out, format: format, pageSize: pageSize, procRoot: procRoot}
}

// Target records a process about to be scanned.
func (r *Reporter) Target(t types.TargetInfo) {
	r.targets = append(r.targets, t)
	if r.format != FormatText {
		return
	}
	fmt.Fprintf(r.out, "pid %d (%s) rss %s", t.PID, t.Comm, humanize.IBytes(t.RSSBytes))
	if total := r.memTotal(); total > 0 {
		fmt.Fprintf(r.out, " (%.2f%% of memory)", 100*float64(t.RSSBytes)/float64(total))
	}
	fmt.Fprintln(r.out)
}

// Page writes one detail line. Detail lines only exist in text output.
func (r *Reporter) Page(rec types.PageRecord) {
	if r.format != FormatText {
		return
	}
	fmt.Fprint(r.out, DetailLine(rec))
}

// File records one probed file and, in text mode, prints its residency line as
// "<path>: Pages <total>/<resident> <pct>%".
func (r *Reporter) File(f types.FileResidency) {
	r.files = append(r.files, f)
	if r.format != FormatText {
		return
	}
	fmt.Fprintf(r.out, "%s: Pages %d/%d %.2f%%\n", f.Path, f.Pages, f.ResidentPages, f.Percent())
}

// DetailLine formats one page the way --details prints it, newline included.
// The cgroup field appears only when the owner was looked up and the name
// field only when the page has a tag.
func DetailLine(rec types.PageRecord) string {
	e := rec.Entry
	line := fmt.Sprintf("0x%-16x : PFN %-16x refs: %d soft-dirty %d ex-map: %d shared %d swapped %d present %d",
		e.VirtualAddress, e.FrameNumber, rec.Frame.ShareCount,
		bit(e.SoftDirty), bit(e.ExclusiveMap), bit(e.SharedOrFile), bit(e.Swapped), bit(e.Present))
	if rec.Frame.OwnerID != types.UnknownOwner {
		line += fmt.Sprintf(" cgroup: %d", rec.Frame.OwnerID)
	}
	if rec.Tag != "" {
		line += " name: " + rec.Tag
	}
	return line + "\n"
}

func bit(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (r *Reporter) memTotal() uint64 {
	r.totalMemOnce.Do(func() {
		if v, err := totalMemoryBytes(r.procRoot); err == nil {
			r.totalMem = v
		}
	})
	return r.totalMem
}

func (r *Reporter) bytes(pages uint64) uint64 {
	return pages * uint64(r.pageSize)
}
