package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yt-ebook-api/internal/domain/entity"
	"yt-ebook-api/internal/domain/repository"
	"yt-ebook-api/internal/infrastructure/persistence/store"
)

func openTest(t *testing.T) *Backend {
	t.Helper()
	b, err := Open(filepath.Join(t.TempDir(), "projects.db"), "projects")
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestBackend_LoadSave(t *testing.T) {
	ctx := context.Background()
	b := openTest(t)

	data, err := b.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, data)

	require.NoError(t, b.Save(ctx, []byte(`[{"id":"a"}]`)))
	require.NoError(t, b.Save(ctx, []byte(`[{"id":"b"}]`)))

	data, err = b.Load(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"b"}]`, string(data))
	assert.NoError(t, b.Ping(ctx))
}

func TestBackend_MutateRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	b := openTest(t)
	require.NoError(t, b.Save(ctx, []byte(`[]`)))

	err := b.Mutate(ctx, func(data []byte) ([]byte, error) {
		return nil, fmt.Errorf("boom")
	})
	require.Error(t, err)

	err = b.Mutate(ctx, func(data []byte) ([]byte, error) {
		assert.Equal(t, "[]", string(data))
		return []byte(`[{"id":"x"}]`), nil
	})
	require.NoError(t, err)

	data, err := b.Load(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"x"}]`, string(data))
}

func TestBackend_StoreConcurrentUpdates(t *testing.T) {
	ctx := context.Background()
	s := store.New(openTest(t))

	p, err := s.Create(ctx, "Demo", []entity.VideoRef{{ID: "abc123"}}, entity.DefaultSettings())
	require.NoError(t, err)
	chapters := make([]entity.Chapter, 8)
	for i := range chapters {
		chapters[i] = entity.Chapter{ID: i + 1}
	}
	_, err = s.Update(ctx, p.ID, repository.ProjectPatch{Chapters: &chapters})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 1; i <= 8; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			content := fmt.Sprintf("chapter body %d", id)
			_, err := s.Update(ctx, p.ID, repository.ProjectPatch{ChapterPatches: []repository.ChapterPatch{{ID: id, Content: &content}}})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	got, err := s.Get(ctx, p.ID)
	require.NoError(t, err)
	sum := 0
	for _, ch := range got.Chapters {
		assert.Equal(t, fmt.Sprintf("chapter body %d", ch.ID), ch.Content)
		sum += ch.CharCount
	}
	assert.Equal(t, sum, got.TotalChars)
}
