package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "none", c.Provider)
	assert.Equal(t, 500, c.AnalyzeMaxTokens)
	assert.Equal(t, 1500, c.SynthesizeMaxTokens)
	assert.Equal(t, ":8000", c.Addr)
	assert.Equal(t, 30*time.Second, c.LLMTimeout())
	assert.Equal(t, 30*time.Second, c.BreakerCooldown())
	assert.Equal(t, 3, c.BreakerFailures)
	assert.Equal(t, "text", c.LogFormat)
}

func TestLoadFileAndEnvPrecedence(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte("provider: ollama\nmodel: llama3.2\naddr: \":9000\"\ndata_path: /tmp/campaigns.csv\n"), 0o600))
	t.Setenv("DQAGENT_MODEL", "qwen2.5")

	c, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "ollama", c.Provider)
	assert.Equal(t, "qwen2.5", c.Model, "env overrides file")
	assert.Equal(t, ":9000", c.Addr)
	assert.Equal(t, "/tmp/campaigns.csv", c.DataPath)
}

func TestLoadRejectsBadProvider(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte("provider: watson\n"), 0o600))
	_, err := Load(p)
	assert.ErrorContains(t, err, "invalid provider")
}

func TestSetAndSave(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.yaml")
	c, err := Load(p)
	require.NoError(t, err)

	require.NoError(t, c.Set("provider", "LOCAL"))
	require.NoError(t, c.Set("breaker_failures", "5"))
	require.NoError(t, c.Set("watch_data", "true"))
	require.NoError(t, c.Set("temperature", "0.2"))
	assert.Error(t, c.Set("temperature", "3"))
	assert.Error(t, c.Set("breaker_failures", "-1"))
	assert.Error(t, c.Set("log_format", "xml"))
	assert.ErrorContains(t, c.Set("colour", "blue"), "unknown key")
	require.NoError(t, c.Set("log_format", "json"))

	require.NoError(t, Save(c, p))
	got, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "ollama", got.Provider)
	assert.Equal(t, 5, got.BreakerFailures)
	assert.True(t, got.WatchData)
	assert.InDelta(t, 0.2, got.Temperature, 1e-9)
	assert.Equal(t, "json", got.LogFormat)
}
