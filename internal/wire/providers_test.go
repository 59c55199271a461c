package wire

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yt-ebook-api/internal/config"
	"yt-ebook-api/internal/infrastructure/llm"
)

func TestProvideChainsForceMock(t *testing.T) {
	cfg := &config.Config{}
	cfg.Providers.ForceMock = true
	cfg.Providers.Managed.BaseURL = "https://example.test"
	cfg.Providers.YouTube.APIKey = "key"

	chains := ProvideChains(t.Context(), cfg, llm.NewEinoFactory(cfg.LLM))
	assert.Equal(t, []string{"mock"}, providerNames(chains.VideoInfo))
	assert.Equal(t, []string{"mock"}, providerNames(chains.Search))
	assert.Equal(t, []string{"mock"}, providerNames(chains.Book))
	assert.Nil(t, chains.Transcript)
}

func TestProvideChainsByCredentials(t *testing.T) {
	cfg := &config.Config{}
	cfg.Providers.Managed.BaseURL = "https://example.test"
	cfg.Providers.YouTube.APIKey = "key"
	cfg.Providers.YouTube.TranscriptURL = "https://transcripts.example.test"

	chains := ProvideChains(t.Context(), cfg, llm.NewEinoFactory(cfg.LLM))
	require.Len(t, chains.VideoInfo, 3)
	assert.Equal(t, "mock", chains.VideoInfo[2].Name())
	require.Len(t, chains.Search, 2)
	assert.Equal(t, "mock", chains.Search[1].Name())
	assert.Len(t, chains.Book, 2)
	assert.NotNil(t, chains.Transcript)
}

func TestProvideCollectionBackend(t *testing.T) {
	dir := t.TempDir()

	cfg := &config.Config{}
	cfg.Store.File.Path = filepath.Join(dir, "projects.json")
	b, cleanup, err := ProvideCollectionBackend(t.Context(), cfg, nil)
	require.NoError(t, err)
	defer cleanup()
	assert.Equal(t, "file", b.Name())

	cfg.Store.Backend = config.StoreBackendSQLite
	cfg.Store.SQLite.Path = filepath.Join(dir, "projects.db")
	cfg.Store.Collection = "projects"
	b, cleanup, err = ProvideCollectionBackend(t.Context(), cfg, nil)
	require.NoError(t, err)
	defer cleanup()
	assert.Equal(t, "sqlite", b.Name())

	cfg.Store.Backend = config.StoreBackendRedis
	_, _, err = ProvideCollectionBackend(t.Context(), cfg, nil)
	assert.Error(t, err)

	cfg.Store.Backend = "etcd"
	_, _, err = ProvideCollectionBackend(t.Context(), cfg, nil)
	assert.Error(t, err)
}

func TestProvideRedisClientDisabled(t *testing.T) {
	client, cleanup, err := ProvideRedisClient(t.Context(), &config.Config{})
	require.NoError(t, err)
	cleanup()
	assert.Nil(t, client)

	_, _, err = ProvideRequiredRedisClient(t.Context(), &config.Config{})
	assert.Error(t, err)
}

func TestProvideSharedCollectionBackend(t *testing.T) {
	dir := t.TempDir()

	cfg := &config.Config{}
	cfg.Store.Backend = config.StoreBackendFile
	cfg.Store.File.Path = filepath.Join(dir, "projects.json")
	_, _, err := ProvideSharedCollectionBackend(t.Context(), cfg, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be shared")

	cfg.Store.Backend = config.StoreBackendSQLite
	cfg.Store.SQLite.Path = filepath.Join(dir, "projects.db")
	cfg.Store.Collection = "projects"
	b, cleanup, err := ProvideSharedCollectionBackend(t.Context(), cfg, nil)
	require.NoError(t, err)
	defer cleanup()
	assert.Equal(t, "sqlite", b.Name())
}
