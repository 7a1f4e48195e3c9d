//go:build linux

package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/common/version"
	"github.com/spf13/afero"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/srodi/showpagemap/pkg/cgroup"
	"github.com/srodi/showpagemap/pkg/config"
	"github.com/srodi/showpagemap/pkg/report"
	"github.com/srodi/showpagemap/pkg/scan"
	"github.com/srodi/showpagemap/pkg/ui"
)

// exitUsage matches EX_USAGE from sysexits.h.
const exitUsage = 64

type flags struct {
	configFile string
	dir        bool
	details    bool
	cgroup     bool
	refs       bool
	names      bool
	verbose    bool
	noBanner   bool
	mount      string
	output     string
	procRoot   string
	targets    []string
}

type usageError struct{ error }

func (e usageError) Unwrap() error { return e.error }

func newApp(f *flags) *kingpin.Application {
	app := kingpin.New(filepath.Base(os.Args[0]), "Show how the pages of a process, or of the files under a directory, are backed by physical memory.").UsageWriter(os.Stderr)
	app.Version(version.Print("showpagemap"))
	app.HelpFlag.Short('h')
	app.Flag("dir", "Treat the argument as a directory and probe its files in the page cache.").Short('D').BoolVar(&f.dir)
	app.Flag("details", "Print one line per page.").Short('d').BoolVar(&f.details)
	app.Flag("cgroup", "Count resident pages per memory cgroup from /proc/kpagecgroup.").Short('g').BoolVar(&f.cgroup)
	app.Flag("refs", "Read sharing counts from /proc/kpagecount.").Short('r').BoolVar(&f.refs)
	app.Flag("names", "Show the mapping name of each page.").Short('n').BoolVar(&f.names)
	app.Flag("mount", "Override the cgroup mount point.").Short('m').PlaceHolder(cgroup.DefaultMount).StringVar(&f.mount)
	app.Flag("config", "YAML file with default options. Flags take precedence.").Short('c').StringVar(&f.configFile)
	app.Flag("output", "Report format: text, yaml or prometheus.").Short('o').PlaceHolder(config.OutputText).StringVar(&f.output)
	app.Flag("proc", "Where procfs is mounted.").PlaceHolder(config.DefaultProcRoot).StringVar(&f.procRoot)
	app.Flag("verbose", "Enable verbose logging.").Short('v').BoolVar(&f.verbose)
	app.Flag("no-banner", "Never print the banner.").BoolVar(&f.noBanner)
	app.Arg("targets", "PIDs to inspect, or one directory with --dir.").StringsVar(&f.targets)
	return app
}

// resolveConfig layers defaults, the optional config file and the flags.
// Boolean flags can only switch an option on; string flags override when set.
func resolveConfig(f *flags) (config.Config, error) {
	cfg := config.Default()
	if f.configFile != "" {
		if err := config.LoadFile(f.configFile, &cfg); err != nil {
			return cfg, usageError{err}
		}
	}
	cfg.DirMode = cfg.DirMode || f.dir
	cfg.Details = cfg.Details || f.details
	cfg.Cgroup = cfg.Cgroup || f.cgroup
	cfg.Refs = cfg.Refs || f.refs
	cfg.Names = cfg.Names || f.names
	cfg.Verbose = cfg.Verbose || f.verbose
	cfg.NoBanner = cfg.NoBanner || f.noBanner
	if f.mount != "" {
		cfg.CgroupMount = f.mount
	}
	if f.output != "" {
		cfg.Output = f.output
	}
	if f.procRoot != "" {
		cfg.ProcRoot = f.procRoot
	}
	cfg.Targets = f.targets

	if err := cfg.Validate(); err != nil {
		return cfg, usageError{err}
	}
	return cfg, nil
}

func newLogger(verbose bool) log.Logger {
	logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	logger = log.With(logger, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller)
	if !verbose {
		logger = level.NewFilter(logger, level.AllowInfo())
	}
	return logger
}

func main() {
	var f flags
	app := newApp(&f)
	if _, err := app.Parse(os.Args[1:]); err != nil {
		app.Usage(nil)
		os.Exit(checkError(log.NewNopLogger(), usageError{err}))
	}

	cfg, err := resolveConfig(&f)
	if err != nil {
		os.Exit(checkError(log.NewNopLogger(), err))
	}
	logger := newLogger(cfg.Verbose)
	os.Exit(checkError(logger, run(cfg, afero.NewOsFs(), logger, os.Stdout)))
}

func run(cfg config.Config, fs afero.Fs, logger log.Logger, stdout *os.File) (err error) {
	if cfg.Output == config.OutputText && ui.Enabled(stdout, cfg.NoBanner) {
		fmt.Fprint(stdout, ui.Banner())
	}
	if cfg.Details && cfg.Output != config.OutputText {
		level.Warn(logger).Log("msg", "detail lines are only printed in text output", "output", cfg.Output)
	}

	out := bufio.NewWriter(stdout)
	defer func() {
		if ferr := out.Flush(); err == nil {
			err = ferr
		}
	}()

	rep := report.New(out, cfg.Output, cfg.PageSize, cfg.ProcRoot)
	sess := scan.NewSession(fs, scan.Options{
		Details:  cfg.Details,
		Refs:     cfg.Refs,
		Cgroup:   cfg.Cgroup,
		Names:    cfg.Names,
		PageSize: cfg.PageSize,
		ProcRoot: cfg.ProcRoot,
	}, scan.Hooks{Page: rep.Page, File: rep.File, Target: rep.Target}, logger)
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			level.Warn(logger).Log("msg", "closing frame tables", "err", cerr)
		}
	}()

	if cfg.DirMode {
		if err := sess.ScanDir(cfg.Targets[0]); err != nil {
			return err
		}
	} else {
		pids, err := cfg.PIDs()
		if err != nil {
			return usageError{err}
		}
		for _, pid := range pids {
			if err := sess.ScanPID(pid); err != nil {
				return err
			}
		}
	}

	agg := sess.Aggregator()
	var owners []report.OwnerRow
	if agg.TracksOwners() {
		resolver := cgroup.NewResolver(fs, cfg.CgroupMount, logger)
		if owners, err = report.OwnerRows(agg.Owners(), cfg.PageSize, resolver); err != nil {
			return err
		}
	}
	return rep.Render(agg.Summary(), owners)
}

func checkError(logger log.Logger, err error) int {
	var usage usageError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &usage):
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return exitUsage
	default:
		level.Error(logger).Log("msg", "showpagemap failed", "err", err)
		return 1
	}
}
