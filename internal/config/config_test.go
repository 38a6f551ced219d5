package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := NewFromViper(NewEmptyViper())

	server, err := cfg.GetServer()
	require.NoError(t, err)
	assert.Equal(t, "http", server.FilterType)
	assert.Equal(t, "0.0.0.0:8080", server.ListenAddress)
	assert.Equal(t, 15*time.Second, server.ReadTimeout)
	assert.Equal(t, int64(1<<20), server.MaxBodyBytes)

	spam := cfg.GetSpam()
	assert.Equal(t, 0.7, spam.Threshold)
	assert.Empty(t, spam.AllowedDomains)

	assert.False(t, cfg.GetLLM().Enabled)
	assert.Equal(t, "memory", cfg.GetStore().Type)
	assert.Equal(t, "log", cfg.GetNotify().Type)

	cache, err := cfg.GetCache()
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, cache.TTL)
	assert.Equal(t, time.Hour, cache.CleanupFrequency)
}

func TestNewFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  listen_address: "127.0.0.1:9000"
spam:
  allowed_domains: ["mailinator.com"]
  threshold: 0.9
store:
  type: sqlite
`), 0o644))

	cfg, err := NewFromFile(path)
	require.NoError(t, err)

	server, err := cfg.GetServer()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", server.ListenAddress)
	assert.Equal(t, []string{"mailinator.com"}, cfg.GetSpam().AllowedDomains)
	assert.Equal(t, 0.9, cfg.GetSpam().Threshold)
	assert.Equal(t, "sqlite", cfg.GetStore().Type)
	assert.Equal(t, "anthropic.claude-v2", cfg.GetBedrock().ModelID)
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("FORM_SPAM_STORE_TYPE", "postgres")
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  type: sqlite\n"), 0o644))

	cfg, err := NewFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.GetStore().Type)
}

func TestInvalidDuration(t *testing.T) {
	v := NewEmptyViper()
	v.Set("cache.ttl", "forever")

	_, err := NewFromViper(v).GetCache()

	assert.Error(t, err)
}
