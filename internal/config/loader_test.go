package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("YT_EBOOK_TEST_KEY", "secret")

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"set variable", "key: ${YT_EBOOK_TEST_KEY}", "key: secret"},
		{"set variable ignores default", "key: ${YT_EBOOK_TEST_KEY:other}", "key: secret"},
		{"default used", "key: ${YT_EBOOK_TEST_MISSING:fallback}", "key: fallback"},
		{"empty default", "key: ${YT_EBOOK_TEST_MISSING:}", "key: "},
		{"undefined kept", "key: ${YT_EBOOK_TEST_MISSING}", "key: ${YT_EBOOK_TEST_MISSING}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, expandEnv(tt.in))
		})
	}
}

func TestLoadFrom_DefaultsApplied(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.yaml", "app:\n  name: test-app\n")

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)

	assert.Equal(t, "test-app", cfg.App.Name)
	assert.Equal(t, StoreBackendFile, cfg.Store.Backend)
	assert.Equal(t, time.Second, cfg.Editor.Debounce)
	assert.Equal(t, 8080, cfg.Server.HTTP.Port)
	assert.Equal(t, "https://www.googleapis.com/youtube/v3", cfg.Providers.YouTube.BaseURL)
	assert.False(t, cfg.Providers.ForceMock)
}

func TestLoadFrom_EnvironmentOverlay(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("APP_ENV", "test")
	writeConfig(t, dir, "config.yaml", "store:\n  backend: file\neditor:\n  debounce: 1s\n")
	writeConfig(t, dir, "config.test.yaml", "store:\n  backend: sqlite\neditor:\n  debounce: 250ms\n")

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)

	assert.Equal(t, StoreBackendSQLite, cfg.Store.Backend)
	assert.Equal(t, 250*time.Millisecond, cfg.Editor.Debounce)
}

func TestLoadFrom_PlaceholderExpansion(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("YT_EBOOK_TEST_YT_KEY", "yt-key")
	writeConfig(t, dir, "config.yaml", "providers:\n  youtube:\n    api_key: ${YT_EBOOK_TEST_YT_KEY}\n  force_mock: ${YT_EBOOK_TEST_FORCE:true}\n")

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)

	assert.Equal(t, "yt-key", cfg.Providers.YouTube.APIKey)
	assert.True(t, cfg.Providers.ForceMock)
}

func TestLoadFrom_MissingBaseFile(t *testing.T) {
	_, err := LoadFrom(t.TempDir())
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Store:  StoreConfig{Backend: StoreBackendFile},
			Editor: EditorConfig{Debounce: time.Second},
		}
	}

	require.NoError(t, base().Validate())

	cfg := base()
	cfg.Store.Backend = "mongo"
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Store.Backend = StoreBackendRedis
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Editor.Debounce = 0
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Pipeline.Async = true
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Pipeline.Async = true
	cfg.Cache.Redis.Enabled = true
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shared store backend")

	for _, backend := range []string{StoreBackendRedis, StoreBackendPostgres, StoreBackendSQLite} {
		cfg = base()
		cfg.Pipeline.Async = true
		cfg.Cache.Redis.Enabled = true
		cfg.Store.Backend = backend
		assert.NoError(t, cfg.Validate(), backend)
	}
}
