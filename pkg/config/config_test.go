package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srodi/showpagemap/pkg/cgroup"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, cgroup.DefaultMount, cfg.CgroupMount)
	assert.Equal(t, DefaultProcRoot, cfg.ProcRoot)
	assert.Equal(t, OutputText, cfg.Output)
	assert.Positive(t, cfg.PageSize)
}

func TestLoadFileOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "showpagemap.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cgroup: true\nrefs: true\ncgroup_mount: /mnt/cg\n"), 0o644))

	cfg := Default()
	require.NoError(t, LoadFile(path, &cfg))
	assert.True(t, cfg.Cgroup)
	assert.True(t, cfg.Refs)
	assert.False(t, cfg.Details)
	assert.Equal(t, "/mnt/cg", cfg.CgroupMount)
	assert.Equal(t, DefaultProcRoot, cfg.ProcRoot, "untouched keys keep defaults")
}

func TestLoadFileErrors(t *testing.T) {
	cfg := Default()
	assert.Error(t, LoadFile(filepath.Join(t.TempDir(), "missing.yaml"), &cfg))

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("refs: [unterminated"), 0o644))
	assert.Error(t, LoadFile(bad, &cfg))
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"pids", func(c *Config) { c.Targets = []string{"1", "0x10"} }, nil},
		{"noTargets", func(c *Config) {}, ErrNoTargets},
		{"dirModeTwoTargets", func(c *Config) { c.DirMode = true; c.Targets = []string{"/a", "/b"} }, ErrDirModeArgs},
		{"dirModeOneTarget", func(c *Config) { c.DirMode = true; c.Targets = []string{"/a"} }, nil},
		{"badOutput", func(c *Config) { c.Targets = []string{"1"}; c.Output = "json" }, ErrBadOutput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestPIDs(t *testing.T) {
	cfg := Config{Targets: []string{"42", "0x2a", "010"}}
	pids, err := cfg.PIDs()
	require.NoError(t, err)
	assert.Equal(t, []int{42, 42, 8}, pids)

	for _, bad := range []string{"abc", "-1", "0", ""} {
		cfg := Config{Targets: []string{bad}}
		_, err := cfg.PIDs()
		assert.Errorf(t, err, "target %q", bad)
	}
}
