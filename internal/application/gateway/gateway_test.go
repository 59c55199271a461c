package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yt-ebook-api/internal/domain/entity"
	"yt-ebook-api/internal/domain/service"
	"yt-ebook-api/internal/infrastructure/provider/mock"
	apperrors "yt-ebook-api/pkg/errors"
)

type failingProvider struct {
	name  string
	err   error
	calls int
}

func (f *failingProvider) Name() string { return f.name }

func (f *failingProvider) FetchVideoInfo(context.Context, string) (*entity.VideoRef, error) {
	f.calls++
	return nil, f.err
}

func (f *failingProvider) SearchVideos(context.Context, string, int) ([]entity.VideoRef, error) {
	f.calls++
	return nil, f.err
}

func (f *failingProvider) GenerateBookContent(context.Context, []entity.VideoRef, entity.Settings) (*entity.BookContent, error) {
	f.calls++
	return nil, f.err
}

func (f *failingProvider) GenerateSegment(context.Context, string, string, int) (*entity.Segment, error) {
	f.calls++
	return nil, f.err
}

type sloppySegment struct{}

func (sloppySegment) Name() string { return "sloppy" }

func (sloppySegment) GenerateSegment(context.Context, string, string, int) (*entity.Segment, error) {
	return &entity.Segment{Content: "あいう", CharCount: 999}, nil
}

type recordingSearch struct{ gotMax int }

func (r *recordingSearch) Name() string { return "recording" }

func (r *recordingSearch) SearchVideos(_ context.Context, _ string, maxResults int) ([]entity.VideoRef, error) {
	r.gotMax = maxResults
	return nil, nil
}

type fakeCache struct {
	mu    sync.Mutex
	data  map[string][]byte
	loads int
}

func (c *fakeCache) GetOrLoadSafe(ctx context.Context, key string, _ time.Duration, loader func(ctx context.Context) (any, error)) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.data[key]; ok {
		return v, nil
	}
	c.loads++
	v, err := loader(ctx)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	c.data[key] = raw
	return raw, nil
}

func TestFallsThroughToFirstSuccess(t *testing.T) {
	first := &failingProvider{name: "managed", err: errors.New("boom")}
	g := New(Chains{VideoInfo: []service.VideoInfoProvider{first, mock.New()}})

	v, err := g.FetchVideoInfo(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, "Sample Video c123", v.Title)
	assert.Equal(t, 1, first.calls)
}

func TestProviderExhausted(t *testing.T) {
	a := &failingProvider{name: "managed", err: errors.New("first")}
	b := &failingProvider{name: "generative", err: errors.New("last cause")}
	g := New(Chains{Book: []service.BookContentProvider{a, b}})

	_, err := g.GenerateBookContent(context.Background(), nil, entity.DefaultSettings())
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeProviderExhausted))
	assert.ErrorIs(t, err, b.err)
	assert.Contains(t, apperrors.AsAppError(err).Detail, "generative")
	assert.Contains(t, apperrors.AsAppError(err).Detail, "last cause")
	assert.Equal(t, 1, a.calls)
	assert.Equal(t, 1, b.calls)
}

func TestEmptyChainIsExhausted(t *testing.T) {
	g := New(Chains{})
	_, err := g.EnhanceChapter(context.Background(), entity.Chapter{}, []string{"seo"})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeProviderExhausted))
}

func TestCancellationStopsChain(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	first := &failingProvider{name: "a", err: context.Canceled}
	second := &failingProvider{name: "b", err: errors.New("never")}
	g := New(Chains{Search: []service.VideoSearchProvider{first, second}})

	_, err := g.SearchVideos(ctx, "q", 5)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, second.calls)
}

func TestSearchValidationAndClamp(t *testing.T) {
	rec := &recordingSearch{}
	g := New(Chains{Search: []service.VideoSearchProvider{rec}})

	_, err := g.SearchVideos(context.Background(), "  ", 5)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidationFailed))

	for in, want := range map[int]int{0: 10, -3: 10, 1: 1, 50: 50, 51: 50} {
		_, err := g.SearchVideos(context.Background(), "go", in)
		require.NoError(t, err)
		assert.Equal(t, want, rec.gotMax, "max=%d", in)
	}
}

func TestSegmentCharCountRecomputed(t *testing.T) {
	g := New(Chains{Segment: []service.SegmentGenerator{sloppySegment{}}})
	seg, err := g.GenerateSegment(context.Background(), "t", "", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, seg.CharCount)
	assert.False(t, seg.GeneratedAt.IsZero())
}

func TestBookContentNormalized(t *testing.T) {
	g := New(Chains{Book: []service.BookContentProvider{mock.New()}})
	book, err := g.GenerateBookContent(context.Background(), []entity.VideoRef{{ID: "abc123"}}, entity.DefaultSettings())
	require.NoError(t, err)
	assert.Equal(t, 10000, book.TotalChars)
}

func TestVideoInfoCache(t *testing.T) {
	cache := &fakeCache{data: map[string][]byte{}}
	counting := &countingInfo{}
	g := New(Chains{VideoInfo: []service.VideoInfoProvider{counting}}, WithVideoCache(cache, time.Hour))

	for i := 0; i < 3; i++ {
		v, err := g.FetchVideoInfo(context.Background(), "abc123")
		require.NoError(t, err)
		assert.Equal(t, "cached title", v.Title)
	}
	assert.Equal(t, 1, counting.calls)
	assert.Contains(t, cache.data, "video:info:abc123")
}

type countingInfo struct{ calls int }

func (c *countingInfo) Name() string { return "counting" }

func (c *countingInfo) FetchVideoInfo(_ context.Context, id string) (*entity.VideoRef, error) {
	c.calls++
	return &entity.VideoRef{ID: id, Title: "cached title"}, nil
}

func TestTranscriptWithoutSource(t *testing.T) {
	g := New(Chains{})
	text, ok, err := g.GetTranscript(context.Background(), "abc123")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, text)
}

func TestAssistRequiresMessage(t *testing.T) {
	g := New(Chains{Assistant: []service.AssistantResponder{mock.New()}})
	_, err := g.Assist(context.Background(), " ", entity.AssistantContext{})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidationFailed))

	r, err := g.Assist(context.Background(), "内容を良くしたい", entity.AssistantContext{})
	require.NoError(t, err)
	assert.NotEmpty(t, r.Response)
}

func TestProviderNames(t *testing.T) {
	g := New(Chains{VideoInfo: []service.VideoInfoProvider{&failingProvider{name: "managed"}, mock.New()}})
	assert.Equal(t, []string{"managed", "mock"}, g.ProviderNames()[OpFetchVideoInfo])
	assert.Empty(t, g.ProviderNames()[OpSearchVideos])
}
