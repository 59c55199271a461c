package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yt-ebook-api/internal/domain/entity"
	"yt-ebook-api/internal/domain/repository"
	"yt-ebook-api/internal/infrastructure/persistence/store"
	apperrors "yt-ebook-api/pkg/errors"
)

type recordingPublisher struct {
	published []string
	err       error
}

func (r *recordingPublisher) PublishGenerateBook(_ context.Context, projectID string) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	r.published = append(r.published, projectID)
	return "1-0", nil
}

func TestLocalLauncherRunsInBackground(t *testing.T) {
	s := store.New(store.NewMemoryBackend())
	project := newDemo(t, s)
	l := NewLocalLauncher(New(s, mockGateway()), time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	run, err := l.Launch(ctx, project.ID)
	require.NoError(t, err)
	cancel()

	select {
	case <-run.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("run did not finish")
	}
	l.Wait()
	assert.Equal(t, OutcomeCompleted, run.Outcome())

	_, err = l.Launch(context.Background(), project.ID)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeProjectNotPending))
}

func TestStreamLauncher(t *testing.T) {
	s := store.New(store.NewMemoryBackend())
	project := newDemo(t, s)
	pub := &recordingPublisher{}
	l := NewStreamLauncher(s, pub)

	run, err := l.Launch(context.Background(), project.ID)
	require.NoError(t, err)
	assert.Nil(t, run)
	assert.Equal(t, []string{project.ID}, pub.published)

	status := entity.ProjectStatusProcessing
	_, err = s.Update(context.Background(), project.ID, repository.StatusPatch(status))
	require.NoError(t, err)
	_, err = l.Launch(context.Background(), project.ID)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeProjectNotPending))
	assert.Len(t, pub.published, 1)

	_, err = l.Launch(context.Background(), "missing")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeProjectNotFound))
}

func TestStreamLauncherPublishFailure(t *testing.T) {
	s := store.New(store.NewMemoryBackend())
	project := newDemo(t, s)
	l := NewStreamLauncher(s, &recordingPublisher{err: errors.New("redis down")})

	_, err := l.Launch(context.Background(), project.ID)
	assert.ErrorContains(t, err, "redis down")
}

func TestHandleJobAcknowledgesDuplicates(t *testing.T) {
	s := store.New(store.NewMemoryBackend())
	project := newDemo(t, s)
	p := New(s, mockGateway())

	require.NoError(t, p.HandleJob(context.Background(), project.ID))
	require.NoError(t, p.HandleJob(context.Background(), project.ID))
	require.NoError(t, p.HandleJob(context.Background(), "missing"))

	got, err := s.Get(context.Background(), project.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ProjectStatusCompleted, got.Status)
}
