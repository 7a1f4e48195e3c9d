// Package procinfo looks up cosmetic per-process details shown next to the
// pagemap-derived numbers: command name, the kernel's RSS, and MemTotal.
package procinfo

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/prometheus/procfs"

	"github.com/srodi/showpagemap/pkg/types"
)

// procComm and procRSS allow tests to stub lookups that normally hit /proc.
var (
	procComm = func(root string, pid int) (string, error) {
		p, err := openProc(root, pid)
		if err != nil {
			return "", err
		}
		return p.Comm()
	}
	procRSS = func(root string, pid int) (uint64, error) {
		p, err := openProc(root, pid)
		if err != nil {
			return 0, err
		}
		stat, err := p.Stat()
		if err != nil {
			return 0, err
		}
		return uint64(stat.ResidentMemory()), nil
	}
)

func openProc(root string, pid int) (procfs.Proc, error) {
	fs, err := procfs.NewFS(root)
	if err != nil {
		return procfs.Proc{}, err
	}
	return fs.Proc(pid)
}

// Lookup never fails: a missing comm falls back to "pid-N" and a missing RSS
// is reported as 0.
func Lookup(root string, pid int) types.TargetInfo {
	info := types.TargetInfo{PID: pid, Comm: fmt.Sprintf("pid-%d", pid)}
	if comm, err := procComm(root, pid); err == nil {
		if comm = strings.TrimSpace(comm); comm != "" {
			info.Comm = comm
		}
	}
	if rss, err := procRSS(root, pid); err == nil {
		info.RSSBytes = rss
	}
	return info
}

// TotalMemoryBytes returns MemTotal from <root>/meminfo in bytes.
func TotalMemoryBytes(root string) (uint64, error) {
	fs, err := procfs.NewFS(root)
	if err != nil {
		return 0, errors.Wrap(err, "opening procfs")
	}
	mi, err := fs.Meminfo()
	if err != nil {
		return 0, errors.Wrap(err, "reading meminfo")
	}
	if mi.MemTotal == nil {
		return 0, errors.New("MemTotal not found in meminfo")
	}
	return *mi.MemTotal * 1024, nil
}
