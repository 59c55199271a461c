package generative

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yt-ebook-api/internal/domain/entity"
)

type scriptedModel struct {
	reply string
	err   error
	last  []*schema.Message
}

func (m *scriptedModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	m.last = input
	if m.err != nil {
		return nil, m.err
	}
	return schema.AssistantMessage(m.reply, nil), nil
}

func (m *scriptedModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not implemented")
}

type staticFactory struct{ m *scriptedModel }

func (f staticFactory) Get(context.Context, string) (model.BaseChatModel, error) { return f.m, nil }
func (f staticFactory) DefaultName() string                                     { return "openai" }

var fixedNow = time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

func newTestProvider(reply string, err error) (*Provider, *scriptedModel) {
	m := &scriptedModel{reply: reply, err: err}
	p := New(staticFactory{m: m})
	p.now = func() time.Time { return fixedNow }
	return p, m
}

func TestGenerateBookContentParsesModelJSON(t *testing.T) {
	p, m := newTestProvider("了解しました。\n```json\n{\"chapters\":[{\"title\":\"序章\",\"content\":\"はじめに。\"},{\"title\":\"結論\",\"content\":\"おわり\"}]}\n```", nil)

	transcript := "字幕"
	tpl, _ := entity.FindTemplate("tutorial")
	settings := entity.DefaultSettings().ApplyTemplate(tpl)
	book, err := p.GenerateBookContent(context.Background(), []entity.VideoRef{{ID: "abc123", Title: "Demo", Transcript: &transcript}}, settings)
	require.NoError(t, err)

	require.Len(t, book.Chapters, 2)
	assert.Equal(t, 1, book.Chapters[0].ID)
	assert.Equal(t, 2, book.Chapters[1].ID)
	assert.Equal(t, 5, book.Chapters[0].CharCount)
	assert.Equal(t, 8, book.TotalChars)
	assert.Equal(t, "generative:openai", book.Metadata.Provider)
	assert.Contains(t, m.last[1].Content, "1. 概要・目標設定")
	assert.Contains(t, m.last[1].Content, "Transcript: 字幕")
}

func TestGenerateBookContentRejectsGarbage(t *testing.T) {
	p, _ := newTestProvider("I cannot help with that.", nil)
	_, err := p.GenerateBookContent(context.Background(), []entity.VideoRef{{ID: "abc123"}}, entity.DefaultSettings())
	assert.Error(t, err)

	p, _ = newTestProvider(`{"chapters":[]}`, nil)
	_, err = p.GenerateBookContent(context.Background(), []entity.VideoRef{{ID: "abc123"}}, entity.DefaultSettings())
	assert.Error(t, err)
}

func TestEnhanceChapter(t *testing.T) {
	p, m := newTestProvider(`{"content":"改善された本文"}`, nil)
	ch := entity.Chapter{ID: 3, Title: "基礎"}
	ch.SetContent("元の本文")

	out, err := p.EnhanceChapter(context.Background(), ch, []string{"readability", "seo", "readability"})
	require.NoError(t, err)
	assert.Equal(t, 3, out.ID)
	assert.Equal(t, "改善された本文", out.Content)
	assert.Equal(t, 7, out.CharCount)
	assert.Equal(t, []string{"readability", "seo"}, out.AppliedEnhancements)
	assert.Equal(t, fixedNow, *out.LastEnhanced)
	assert.Contains(t, m.last[1].Content, "- readability (読みやすさ向上)")

	_, err = p.EnhanceChapter(context.Background(), ch, []string{"bogus"})
	assert.Error(t, err)
}

func TestGenerateSegment(t *testing.T) {
	p, _ := newTestProvider(`{"content":"## 追加\n本文"}`, nil)
	seg, err := p.GenerateSegment(context.Background(), "基礎", "既存", 500)
	require.NoError(t, err)
	assert.Equal(t, "\n\n## 追加\n本文", seg.Content)
	assert.Equal(t, entity.CharCount(seg.Content), seg.CharCount)
}

func TestModelErrorPropagates(t *testing.T) {
	p, _ := newTestProvider("", errors.New("upstream 500"))
	_, err := p.Assist(context.Background(), "hi", entity.AssistantContext{})
	assert.Error(t, err)
}

func TestAssist(t *testing.T) {
	p, m := newTestProvider("  見出しを増やしましょう。 ", nil)
	r, err := p.Assist(context.Background(), "改善点は？", entity.AssistantContext{ProjectTitle: "本", ChapterTitles: []string{"序章"}})
	require.NoError(t, err)
	assert.Equal(t, "見出しを増やしましょう。", r.Response)
	assert.Contains(t, m.last[1].Content, "Book: 本")
}
