package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolateEnv points .env loading at a file that does not exist so the
// developer's environment cannot leak into tests.
func isolateEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("DRIFT_ENV_FILE", filepath.Join(dir, "missing.env"))
	return dir
}

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	dir := isolateEnv(t)

	cfg, err := LoadFile(filepath.Join(dir, "config.json"))
	require.NoError(t, err)

	assert.Equal(t, DefaultDeepLinkScheme, cfg.DeepLinkScheme)
	assert.Equal(t, 300*time.Second, cfg.CallbackTimeout())
	assert.Equal(t, DefaultPortMin, cfg.PortMin)
	assert.Equal(t, DefaultPortMax, cfg.PortMax)
	assert.Equal(t, DefaultCaptureHotkey, cfg.CaptureHotkey)
	assert.Equal(t, 10*time.Second, cfg.RecordInterval())
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.PersistToken)
}

func TestSaveAndLoad(t *testing.T) {
	dir := isolateEnv(t)
	path := filepath.Join(dir, "nested", "config.json")

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	cfg.AuthURL = "https://app.example.com/desktop/login"
	cfg.PersistToken = true
	cfg.CaptureHotkey = ""
	require.NoError(t, cfg.Save())

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "https://app.example.com/desktop/login", loaded.AuthURL)
	assert.True(t, loaded.PersistToken)
	assert.Empty(t, loaded.CaptureHotkey, "an empty hotkey disables it and must survive a reload")

	tokenDir, err := loaded.TokenDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "nested", "token"), tokenDir)
}

func TestEnvOverrides(t *testing.T) {
	dir := isolateEnv(t)
	t.Setenv("DRIFT_AUTH_URL", "https://env.example.com/login")
	t.Setenv("DRIFT_CALLBACK_TIMEOUT", "60")
	t.Setenv("DRIFT_PERSIST_TOKEN", "true")
	t.Setenv("DRIFT_LOG_LEVEL", "debug")

	cfg, err := LoadFile(filepath.Join(dir, "config.json"))
	require.NoError(t, err)
	assert.Equal(t, "https://env.example.com/login", cfg.AuthURL)
	assert.Equal(t, time.Minute, cfg.CallbackTimeout())
	assert.True(t, cfg.PersistToken)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestEnvOverrideInvalid(t *testing.T) {
	dir := isolateEnv(t)
	t.Setenv("DRIFT_PORT_MIN", "abc")

	_, err := LoadFile(filepath.Join(dir, "config.json"))
	assert.Error(t, err)
}

func TestDotEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("DRIFT_DEEP_LINK_SCHEME=driftdev\n"), 0644))
	t.Setenv("DRIFT_ENV_FILE", envFile)
	// godotenv sets variables directly; register cleanup through t.Setenv.
	t.Setenv("DRIFT_DEEP_LINK_SCHEME", "")
	os.Unsetenv("DRIFT_DEEP_LINK_SCHEME")

	cfg, err := LoadFile(filepath.Join(dir, "config.json"))
	require.NoError(t, err)
	assert.Equal(t, "driftdev", cfg.DeepLinkScheme)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"inverted ports", func(c *Config) { c.PortMin, c.PortMax = 20000, 19000 }, true},
		{"port too high", func(c *Config) { c.PortMax = 70000 }, true},
		{"zero timeout", func(c *Config) { c.CallbackTimeoutSeconds = 0 }, true},
		{"negative interval", func(c *Config) { c.RecordIntervalSeconds = -1 }, true},
		{"scheme with colon", func(c *Config) { c.DeepLinkScheme = "drift:" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestInvalidJSON(t *testing.T) {
	dir := isolateEnv(t)
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := LoadFile(path)
	assert.Error(t, err)
}
