// Package config holds the options for one inspection run.
package config

import (
	"os"
	"strconv"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
	"gopkg.in/yaml.v3"

	"github.com/srodi/showpagemap/pkg/cgroup"
)

// Output formats understood by the reporter.
const (
	OutputText       = "text"
	OutputYAML       = "yaml"
	OutputPrometheus = "prometheus"
)

// DefaultProcRoot is where procfs is mounted.
const DefaultProcRoot = "/proc"

var (
	// ErrNoTargets means neither a PID nor a directory was given.
	ErrNoTargets = errors.New("at least one PID or directory is required")
	// ErrDirModeArgs means directory mode got more than one target.
	ErrDirModeArgs = errors.New("directory mode takes exactly one directory")
	// ErrBadOutput means the output format is unknown.
	ErrBadOutput = errors.New("unknown output format")
)

// Config is filled from defaults, then an optional YAML file, then flags.
type Config struct {
	DirMode     bool   `yaml:"dir_mode"`
	Details     bool   `yaml:"details"`
	Cgroup      bool   `yaml:"cgroup"`
	Refs        bool   `yaml:"refs"`
	Names       bool   `yaml:"names"`
	CgroupMount string `yaml:"cgroup_mount"`
	ProcRoot    string `yaml:"proc_root"`
	Output      string `yaml:"output"`
	NoBanner    bool   `yaml:"no_banner"`
	Verbose     bool   `yaml:"verbose"`

	PageSize int      `yaml:"-"`
	Targets  []string `yaml:"-"`
}

// Default returns the settings used when nothing overrides them.
func Default() Config {
	return Config{
		CgroupMount: cgroup.DefaultMount,
		ProcRoot:    DefaultProcRoot,
		Output:      OutputText,
		PageSize:    unix.Getpagesize(),
	}
}

// LoadFile overlays the YAML document at path onto cfg. Keys missing from the
// file keep their current values.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "reading config file")
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return errors.Wrapf(err, "parsing config file %s", path)
	}
	return nil
}

// Validate checks the option combination. It does not touch the filesystem.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return ErrNoTargets
	}
	if c.DirMode && len(c.Targets) > 1 {
		return ErrDirModeArgs
	}
	switch c.Output {
	case OutputText, OutputYAML, OutputPrometheus:
	default:
		return errors.Wrapf(ErrBadOutput, "%q", c.Output)
	}
	if c.PageSize <= 0 {
		return errors.Errorf("invalid page size %d", c.PageSize)
	}
	if !c.DirMode {
		if _, err := c.PIDs(); err != nil {
			return err
		}
	}
	return nil
}

// PIDs parses the targets as process IDs. A 0x or 0 prefix selects hex or
// octal, as strtol with base 0 would.
func (c *Config) PIDs() ([]int, error) {
	pids := make([]int, 0, len(c.Targets))
	for _, t := range c.Targets {
		pid, err := strconv.ParseInt(t, 0, 32)
		if err != nil || pid <= 0 {
			return nil, errors.Errorf("failed to parse PID %q", t)
		}
		pids = append(pids, int(pid))
	}
	return pids, nil
}
