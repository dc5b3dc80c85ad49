package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, "https://adsapi.snapchat.com/v1", cfg.Snapchat.AdsBaseURL)
	assert.Equal(t, 30*time.Second, cfg.Snapchat.RequestTimeout)
	assert.Equal(t, 3, cfg.Snapchat.MaxRetries)
	assert.Equal(t, 3, cfg.Bulk.UploadRetries)
	assert.Equal(t, 120*time.Second, cfg.Bulk.MediaWaitTimeout)
	assert.Equal(t, 50, cfg.Bulk.MediaSampleSize)
}

func TestLoadFromFilesOverrides(t *testing.T) {
	dir := t.TempDir()

	base := filepath.Join(dir, "base.toml")
	require.NoError(t, os.WriteFile(base, []byte(`
[server]
port = 9000

[auth]
token_file = "/tmp/tokens.json"
`), 0644))

	override := filepath.Join(dir, "override.toml")
	require.NoError(t, os.WriteFile(override, []byte(`
[server]
port = 9100
`), 0644))

	cfg, err := LoadFromFiles(base, override)
	require.NoError(t, err)

	// later file wins, untouched values survive from earlier layers
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "/tmp/tokens.json", cfg.Auth.TokenFile)
	assert.Equal(t, "localhost", cfg.Server.Host)
}

func TestLoadFromFilesMissingFile(t *testing.T) {
	_, err := LoadFromFiles(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("ADLAUNCH_SERVER_PORT", "7070")
	t.Setenv("ADLAUNCH_LOG_LEVEL", "debug")
	t.Setenv("ADLAUNCH_AUTH_TOKEN_FILE", "/var/lib/adlaunch/tokens.json")
	t.Setenv("ADLAUNCH_SNAPCHAT_MAX_RETRIES", "5")

	cfg, err := LoadFromFiles()
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "/var/lib/adlaunch/tokens.json", cfg.Auth.TokenFile)
	assert.Equal(t, 5, cfg.Snapchat.MaxRetries)
}

func TestApplyFlagOverrides(t *testing.T) {
	cfg := NewDefaultConfig()

	ApplyFlagOverrides(cfg, 6060, "0.0.0.0")
	assert.Equal(t, 6060, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)

	// zero values leave config untouched
	ApplyFlagOverrides(cfg, 0, "")
	assert.Equal(t, 6060, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
}
