package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakubdabek/gembiler/pkg/config"
)

func TestDefaultMeetsScratchSizeFloor(t *testing.T) {
	cfg := config.Default()
	assert.Equal(t, config.DefaultScratchSize, cfg.ScratchSize)
	assert.Equal(t, config.CacheMemory, cfg.CacheBackend)
}

func TestLoadMissingPathReturnsDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoadOverridesOnTopOfDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gembiler.yaml")
	doc := "scratch_size: 11\nlog_level: debug\ncache_backend: redis\nredis_addr: cache:6379\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, config.CacheRedis, cfg.CacheBackend)
	assert.Equal(t, "cache:6379", cfg.RedisAddr)
	assert.Equal(t, "text", cfg.LogFormat, "fields absent from the document keep their default")
}

func TestLoadRejectsScratchSizeBelowFloor(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gembiler.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scratch_size: 3\n"), 0o644))

	_, err := config.Load(path)
	assert.Error(t, err)
}
