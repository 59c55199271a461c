package editor

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yt-ebook-api/internal/domain/entity"
	"yt-ebook-api/internal/domain/repository"
	"yt-ebook-api/internal/infrastructure/persistence/store"
	apperrors "yt-ebook-api/pkg/errors"
)

const testDebounce = 40 * time.Millisecond

type fakeGateway struct {
	segment      string
	segmentErr   error
	enhanceErr   error
	enhanceCalls atomic.Int32
	onEnhance    func()
}

func (f *fakeGateway) GenerateSegment(_ context.Context, _, _ string, _ int) (*entity.Segment, error) {
	if f.segmentErr != nil {
		return nil, f.segmentErr
	}
	return &entity.Segment{Content: f.segment, CharCount: entity.CharCount(f.segment)}, nil
}

func (f *fakeGateway) EnhanceChapter(_ context.Context, ch entity.Chapter, ids []string) (*entity.Chapter, error) {
	f.enhanceCalls.Add(1)
	if f.onEnhance != nil {
		f.onEnhance()
	}
	if f.enhanceErr != nil {
		return nil, f.enhanceErr
	}
	out := ch.Clone()
	out.SetContent("# " + ch.Title + "\n\n" + ch.Content)
	out.AppliedEnhancements = ids
	return &out, nil
}

type fixture struct {
	store   *store.ProjectStore
	backend *store.MemoryBackend
	gateway *fakeGateway
	manager *Manager
	project *entity.Project
}

func newFixture(t *testing.T, content string) *fixture {
	t.Helper()
	backend := store.NewMemoryBackend()
	s := store.New(backend)
	ctx := context.Background()

	p, err := s.Create(ctx, "Demo", []entity.VideoRef{{ID: "abc123"}}, entity.DefaultSettings())
	require.NoError(t, err)
	chapters := []entity.Chapter{
		{ID: 1, Title: "序章", Content: content},
		{ID: 2, Title: "結論", Content: "おわり"},
	}
	p, err = s.Update(ctx, p.ID, repository.ProjectPatch{Chapters: &chapters})
	require.NoError(t, err)

	gw := &fakeGateway{}
	return &fixture{
		store:   s,
		backend: backend,
		gateway: gw,
		manager: NewManager(s, gw, testDebounce),
		project: p,
	}
}

func (f *fixture) chapter(t *testing.T, id int) entity.Chapter {
	t.Helper()
	p, err := f.store.Get(context.Background(), f.project.ID)
	require.NoError(t, err)
	ch, ok := p.Chapter(id)
	require.True(t, ok)
	return *ch
}

func (f *fixture) open(t *testing.T, id int) *Session {
	t.Helper()
	s, err := f.manager.Open(context.Background(), f.project.ID, id)
	require.NoError(t, err)
	return s
}

func TestRapidEditsCoalesceIntoOneWrite(t *testing.T) {
	f := newFixture(t, "X")
	s := f.open(t, 1)
	before := f.backend.Saves()

	for _, text := range []string{"a", "ab", "abc", "abcd", "abcde"} {
		s.SetContent(text)
	}
	assert.Equal(t, before, f.backend.Saves())

	require.Eventually(t, func() bool { return f.backend.Saves() == before+1 }, time.Second, 5*time.Millisecond)
	time.Sleep(3 * testDebounce)
	assert.Equal(t, before+1, f.backend.Saves())

	ch := f.chapter(t, 1)
	assert.Equal(t, "abcde", ch.Content)
	assert.Equal(t, 5, ch.CharCount)
	assert.NotNil(t, ch.LastModified)
	assert.Empty(t, s.View().Pending)
}

func TestTitleAndContentPersistIndependently(t *testing.T) {
	f := newFixture(t, "X")
	s := f.open(t, 1)

	s.SetTitle("新しい序章")
	view := s.SetContent("本文です。")
	assert.ElementsMatch(t, []Field{FieldContent, FieldTitle}, view.Pending)

	require.Eventually(t, func() bool {
		ch := f.chapter(t, 1)
		return ch.Title == "新しい序章" && ch.Content == "本文です。"
	}, time.Second, 5*time.Millisecond)
}

func TestFlushWritesPendingImmediately(t *testing.T) {
	f := newFixture(t, "X")
	s := f.open(t, 1)
	before := f.backend.Saves()

	s.SetContent("flushed")
	require.NoError(t, s.Flush(context.Background()))
	assert.Equal(t, before+1, f.backend.Saves())
	assert.Equal(t, "flushed", f.chapter(t, 1).Content)

	time.Sleep(3 * testDebounce)
	assert.Equal(t, before+1, f.backend.Saves())
}

func TestAppendGeneratedSegment(t *testing.T) {
	f := newFixture(t, "X")
	f.gateway.segment = strings.Repeat("あ", 842)
	s := f.open(t, 1)

	view, err := s.AppendGeneratedSegment(context.Background(), 1000)
	require.NoError(t, err)
	assert.Equal(t, 843, entity.CharCount(view.Chapter.Content))
	assert.Equal(t, 843, view.Chapter.CharCount)

	stored := f.chapter(t, 1)
	assert.Equal(t, 843, stored.CharCount)

	p, err := f.store.Get(context.Background(), f.project.ID)
	require.NoError(t, err)
	assert.Equal(t, 843+entity.CharCount("おわり"), p.TotalChars)
}

func TestAppendSegmentIncludesUnsavedEdits(t *testing.T) {
	f := newFixture(t, "X")
	f.gateway.segment = "++"
	s := f.open(t, 1)
	before := f.backend.Saves()

	s.SetContent("typed")
	_, err := s.AppendGeneratedSegment(context.Background(), 10)
	require.NoError(t, err)

	time.Sleep(3 * testDebounce)
	assert.Equal(t, before+1, f.backend.Saves())
	assert.Equal(t, "typed++", f.chapter(t, 1).Content)
}

func TestSegmentFailureLeavesChapterUnchanged(t *testing.T) {
	f := newFixture(t, "X")
	f.gateway.segmentErr = apperrors.ErrProviderExhausted
	s := f.open(t, 1)
	before := f.backend.Saves()

	view, err := s.AppendGeneratedSegment(context.Background(), 1000)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeProviderExhausted))
	assert.Equal(t, "X", view.Chapter.Content)
	assert.Equal(t, before, f.backend.Saves())
}

func TestApplyEnhancements(t *testing.T) {
	f := newFixture(t, "本文")
	s := f.open(t, 1)

	view, err := s.ApplyEnhancements(context.Background(), []string{"structure", "structure"})
	require.NoError(t, err)
	assert.Equal(t, "# 序章\n\n本文", view.Chapter.Content)
	assert.Equal(t, []string{"structure"}, view.Chapter.AppliedEnhancements)
	require.NotNil(t, view.Chapter.LastEnhanced)

	stored := f.chapter(t, 1)
	assert.Equal(t, view.Chapter.Content, stored.Content)
	assert.Equal(t, entity.CharCount(stored.Content), stored.CharCount)
	assert.Equal(t, []string{"structure"}, stored.AppliedEnhancements)
	assert.NotNil(t, stored.LastEnhanced)
}

func TestApplyEnhancementsValidation(t *testing.T) {
	f := newFixture(t, "本文")
	s := f.open(t, 1)

	_, err := s.ApplyEnhancements(context.Background(), nil)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidationFailed))
	_, err = s.ApplyEnhancements(context.Background(), []string{"bogus"})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidationFailed))
	assert.Zero(t, f.gateway.enhanceCalls.Load())
}

func TestEnhancementFailureIsIdempotent(t *testing.T) {
	f := newFixture(t, "元の本文。")
	f.gateway.enhanceErr = apperrors.ErrProviderExhausted.WithError(errors.New("mock disabled"))
	s := f.open(t, 1)
	before := s.View().Chapter
	saves := f.backend.Saves()

	_, err := s.ApplyEnhancements(context.Background(), []string{"seo", "readability"})
	require.Error(t, err)

	after := s.View().Chapter
	assert.Equal(t, before.Content, after.Content)
	assert.Equal(t, before.CharCount, after.CharCount)
	assert.Equal(t, saves, f.backend.Saves())
	assert.Equal(t, before.Content, f.chapter(t, 1).Content)
}

func TestManagerSessions(t *testing.T) {
	f := newFixture(t, "X")
	a := f.open(t, 1)
	b := f.open(t, 1)
	assert.Same(t, a, b)

	_, err := f.manager.Open(context.Background(), f.project.ID, 99)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeChapterNotFound))
	_, err = f.manager.Open(context.Background(), "missing", 1)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeProjectNotFound))

	a.SetContent("closing")
	other := f.open(t, 2)
	other.SetTitle("終章")
	require.NoError(t, f.manager.CloseAll(context.Background()))
	assert.Equal(t, "closing", f.chapter(t, 1).Content)
	assert.Equal(t, "終章", f.chapter(t, 2).Title)

	_, ok := f.manager.Get(f.project.ID, 1)
	assert.False(t, ok)
}

func TestDiscardDropsPendingWrites(t *testing.T) {
	f := newFixture(t, "X")
	s := f.open(t, 1)
	before := f.backend.Saves()

	s.SetContent("never saved")
	f.manager.Discard(f.project.ID)
	time.Sleep(3 * testDebounce)
	assert.Equal(t, before, f.backend.Saves())
}

func TestFlushProjectKeepsSessionsOpen(t *testing.T) {
	f := newFixture(t, "X")
	s := f.open(t, 2)
	s.SetContent("export me")

	require.NoError(t, f.manager.FlushProject(context.Background(), f.project.ID))
	assert.Equal(t, "export me", f.chapter(t, 2).Content)
	assert.Empty(t, s.View().Pending)

	got, ok := f.manager.Get(f.project.ID, 2)
	assert.True(t, ok)
	assert.Same(t, s, got)
}

func TestEditDuringEnhancementWins(t *testing.T) {
	f := newFixture(t, "old")
	s := f.open(t, 1)
	f.gateway.onEnhance = func() { s.SetContent("old plus newer edit") }

	_, err := s.ApplyEnhancements(context.Background(), []string{"structure"})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeConflict))

	v := s.View()
	assert.Equal(t, "old plus newer edit", v.Chapter.Content)
	assert.Empty(t, v.Chapter.AppliedEnhancements)
	assert.Contains(t, v.Pending, FieldContent)

	require.Eventually(t, func() bool {
		return f.chapter(t, 1).Content == "old plus newer edit"
	}, time.Second, 5*time.Millisecond)
	assert.Nil(t, f.chapter(t, 1).LastEnhanced)
}
