package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdejongh/foldersync/pkg/models"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 60*time.Second, cfg.Sync.Interval)
	assert.Equal(t, 2*time.Second, cfg.Sync.Tolerance)
	assert.Equal(t, models.HashXXH64, cfg.Sync.HashAlgorithm)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"ZeroInterval", func(c *Config) { c.Sync.Interval = 0 }, "sync.interval"},
		{"UnknownHash", func(c *Config) { c.Sync.HashAlgorithm = "crc32" }, "sync.hash_algorithm"},
		{"NegativeTolerance", func(c *Config) { c.Sync.Tolerance = -time.Second }, "sync.tolerance"},
		{"NoWorkers", func(c *Config) { c.Performance.MaxWorkers = 0 }, "performance.max_workers"},
		{"SmallBuffer", func(c *Config) { c.Performance.BufferSize = 10 }, "performance.buffer_size"},
		{"BadBandwidth", func(c *Config) { c.Performance.BandwidthLimit = "fast" }, "performance.bandwidth_limit"},
		{"BadOutput", func(c *Config) { c.Output.Format = "xml" }, "output.format"},
		{"BadLogFormat", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"BadLogLevel", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"BadMaxSize", func(c *Config) { c.Logging.MaxSize = "big" }, "logging.max_size"},
		{"NegativeBackups", func(c *Config) { c.Logging.MaxBackups = -1 }, "logging.max_backups"},
		{"BadExclude", func(c *Config) { c.Exclude = []string{"[oops"} }, "exclude"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			var ve *models.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestBandwidthBytes(t *testing.T) {
	tests := []struct {
		input string
		want  int64
	}{
		{"", 0},
		{"0", 0},
		{"10MB", 10 * 1000 * 1000},
		{"1MiB", 1024 * 1024},
		{"512 KiB", 512 * 1024},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			cfg := Default()
			cfg.Performance.BandwidthLimit = tt.input
			got, err := cfg.BandwidthBytes()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSyncConfiguration(t *testing.T) {
	cfg := Default()
	cfg.Sync.HashCompare = true
	cfg.Sync.HashAlgorithm = models.HashSHA256
	cfg.Performance.BandwidthLimit = "1KiB"
	cfg.Exclude = []string{"*.tmp"}

	sc, err := cfg.SyncConfiguration("/src", "/dst")
	require.NoError(t, err)
	assert.Equal(t, "/src", sc.SourceRoot)
	assert.Equal(t, "/dst", sc.ReplicaRoot)
	assert.True(t, sc.UseHashCompare)
	assert.Equal(t, models.HashSHA256, sc.HashAlgorithm)
	assert.Equal(t, int64(1024), sc.BandwidthLimit)
	assert.Equal(t, []string{"*.tmp"}, sc.ExcludePatterns)
	require.NoError(t, sc.Validate())

	// the exclude list is copied
	sc.ExcludePatterns[0] = "changed"
	assert.Equal(t, "*.tmp", cfg.Exclude[0])
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Sync.Interval = 90 * time.Second
	cfg.Sync.HashCompare = true
	cfg.Sync.HashAlgorithm = models.HashMD5
	cfg.Performance.MaxWorkers = 8
	cfg.Performance.BandwidthLimit = "5MB"
	cfg.Logging.File = "/var/log/foldersync.log"
	cfg.Logging.Format = "json"
	cfg.Logging.MaxSize = "10MB"
	cfg.Exclude = []string{"*.tmp", ".git/"}
	cfg.LockFile = "/run/foldersync.lock"
	cfg.MetricsAddr = ":9090"
	cfg.Watch = true

	require.NoError(t, SaveToFile(cfg, path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
sync:
  interval: 30s
performance:
  max_workers: 2
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.Sync.Interval)
	assert.Equal(t, 2, cfg.Performance.MaxWorkers)
	assert.Equal(t, Default().Performance.BufferSize, cfg.Performance.BufferSize)
	assert.Equal(t, Default().Sync.Tolerance, cfg.Sync.Tolerance)
}

func TestLoadFromFileErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadFromFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("sync: [not, a, map"), 0644))
	_, err = LoadFromFile(bad)
	assert.Error(t, err)

	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("performance:\n  max_workers: 0\n"), 0644))
	_, err = LoadFromFile(invalid)
	var ve *models.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestLoadDefaultWithoutFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadDefaultLocation(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path, err := DefaultConfigPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".config", "foldersync", "config.yaml"), path)

	cfg := Default()
	cfg.Watch = true
	require.NoError(t, SaveToFile(cfg, path))

	loaded, err := Load("")
	require.NoError(t, err)
	assert.True(t, loaded.Watch)
}
