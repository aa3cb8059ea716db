package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, StoreJSONL, cfg.Store)
	assert.Equal(t, "./data", cfg.DataDir)
	assert.Equal(t, 0.003, cfg.FeeRate)
	assert.Equal(t, 0.05, cfg.RetainFraction)
	assert.Equal(t, "base", cfg.DrainMode)
	assert.Equal(t, 1000, cfg.LedgerCap)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 200*time.Millisecond, cfg.RetryBackoff)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, ":8080", cfg.Listen)
	assert.Equal(t, 5*time.Minute, cfg.Window)
	assert.True(t, cfg.Migrate)
}

func TestLoadZeroFeeRate(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("RUGSIM_FEE_RATE", "0")

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Zero(t, cfg.FeeRate)
}

func TestLoadEnvOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("RUGSIM_STORE", "memory")
	t.Setenv("RUGSIM_DRAIN_MODE", "proportional")
	t.Setenv("RUGSIM_RETAIN_FRACTION", "0.1")

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, StoreMemory, cfg.Store)
	assert.Equal(t, "proportional", cfg.DrainMode)
	assert.Equal(t, 0.1, cfg.RetainFraction)
}

func TestLoadFlagsOverrideFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	path := filepath.Join(dir, "sim.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store: memory\nledger-cap: 50\nlog-level: debug\n"), 0o644))

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("ledger-cap", 1000, "")
	require.NoError(t, flags.Parse([]string{"--ledger-cap=20"}))

	cfg, err := Load(path, flags)
	require.NoError(t, err)
	assert.Equal(t, StoreMemory, cfg.Store)
	assert.Equal(t, 20, cfg.LedgerCap)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory", Config{Store: StoreMemory}, false},
		{"jsonl", Config{Store: StoreJSONL, DataDir: "d"}, false},
		{"jsonl without dir", Config{Store: StoreJSONL}, true},
		{"postgres without dsn", Config{Store: StorePostgres}, true},
		{"postgres", Config{Store: StorePostgres, PGDSN: "postgres://x"}, false},
		{"unknown store", Config{Store: "redis"}, true},
		{"negative retries", Config{Store: StoreMemory, MaxRetries: -1}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// chdir moves into dir for the duration of the test so no stray config.yaml is read.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
