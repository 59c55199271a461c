package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yt-ebook-api/internal/domain/entity"
	"yt-ebook-api/internal/infrastructure/persistence/store"
)

func TestBackend_MissingFileIsEmpty(t *testing.T) {
	b, err := NewBackend(filepath.Join(t.TempDir(), "nested", "projects.json"))
	require.NoError(t, err)

	data, err := b.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, data)
	assert.NoError(t, b.Ping(context.Background()))
}

func TestBackend_SaveReplacesWholeFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	b, err := NewBackend(filepath.Join(dir, "projects.json"))
	require.NoError(t, err)

	require.NoError(t, b.Save(ctx, []byte(`[{"id":"a"},{"id":"b"}]`)))
	require.NoError(t, b.Save(ctx, []byte(`[]`)))

	data, err := b.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestBackend_StoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "projects.json")
	b, err := NewBackend(path)
	require.NoError(t, err)

	p, err := store.New(b).Create(ctx, "Demo", []entity.VideoRef{{ID: "abc123"}}, entity.DefaultSettings())
	require.NoError(t, err)

	reopened, err := NewBackend(path)
	require.NoError(t, err)
	got, err := store.New(reopened).Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Demo", got.Title)
	assert.Equal(t, entity.ProjectStatusPending, got.Status)
}
