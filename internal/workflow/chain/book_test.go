package chain

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wfmodel "yt-ebook-api/internal/workflow/model"
)

type fakeChatModel struct {
	mu       sync.Mutex
	replies  []*schema.Message
	errs     []error
	calls    int
	received [][]*schema.Message
}

func (m *fakeChatModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.calls
	m.calls++
	m.received = append(m.received, input)
	if i < len(m.errs) && m.errs[i] != nil {
		return nil, m.errs[i]
	}
	if i < len(m.replies) {
		return m.replies[i], nil
	}
	return m.replies[len(m.replies)-1], nil
}

func (m *fakeChatModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not implemented")
}

type fakeFactory struct {
	model   *fakeChatModel
	lastReq string
}

func (f *fakeFactory) Get(_ context.Context, name string) (model.BaseChatModel, error) {
	f.lastReq = name
	if f.model == nil {
		return nil, errors.New("no model")
	}
	return f.model, nil
}

func (f *fakeFactory) DefaultName() string { return "openai" }

func TestBookContentChainFormatsPrompt(t *testing.T) {
	fm := &fakeChatModel{replies: []*schema.Message{schema.AssistantMessage(`{"chapters":[]}`, nil)}}
	f := &fakeFactory{model: fm}
	c := NewBookChains(f)

	out, err := c.BookContent(context.Background(), &wfmodel.BookContentInput{
		Videos:        []wfmodel.VideoDigest{{Title: "Demo", Channel: "ch", Transcript: "hello"}},
		TargetLength:  10000,
		Language:      "ja",
		Tone:          "formal",
		ChapterTitles: []string{"序章", "本論", "結論"},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"chapters":[]}`, out.Content)
	assert.Equal(t, "openai", f.lastReq)

	require.Len(t, fm.received, 1)
	user := fm.received[0][1].Content
	assert.Contains(t, user, "1. 序章\n2. 本論\n3. 結論")
	assert.Contains(t, user, "## Video 1: Demo (ch)")
	assert.Contains(t, user, "Transcript: hello")
}

func TestChainFallsBackWhenJSONModeUnsupported(t *testing.T) {
	fm := &fakeChatModel{
		errs:    []error{errors.New("unknown parameter: response_format")},
		replies: []*schema.Message{nil, schema.AssistantMessage(`{"content":"ok"}`, nil)},
	}
	c := NewBookChains(&fakeFactory{model: fm})

	out, err := c.Segment(context.Background(), &wfmodel.SegmentInput{ChapterTitle: "t", TargetChars: 100})
	require.NoError(t, err)
	assert.Equal(t, `{"content":"ok"}`, out.Content)
	assert.Equal(t, 2, fm.calls)
}

func TestChainRejectsEmptyResponse(t *testing.T) {
	fm := &fakeChatModel{replies: []*schema.Message{schema.AssistantMessage("   ", nil)}}
	c := NewBookChains(&fakeFactory{model: fm})

	_, err := c.Assistant(context.Background(), &wfmodel.AssistantInput{Message: "章構成は？"})
	require.Error(t, err)
}

func TestChainValidatesInput(t *testing.T) {
	c := NewBookChains(&fakeFactory{})
	_, err := c.BookContent(context.Background(), &wfmodel.BookContentInput{TargetLength: 100})
	assert.Error(t, err)
	_, err = c.EnhanceChapter(context.Background(), &wfmodel.EnhanceChapterInput{})
	assert.Error(t, err)
	_, err = c.Segment(context.Background(), &wfmodel.SegmentInput{})
	assert.Error(t, err)
}
