package mock

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yt-ebook-api/internal/domain/entity"
)

var fixedNow = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func newTestProvider() *Provider {
	return New(WithClock(func() time.Time { return fixedNow }))
}

func TestFetchVideoInfoIsDeterministic(t *testing.T) {
	p := newTestProvider()
	ctx := context.Background()

	a, err := p.FetchVideoInfo(ctx, "abc123")
	require.NoError(t, err)
	b, err := p.FetchVideoInfo(ctx, "abc123")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, "Sample Video c123", a.Title)
	assert.Equal(t, "Sample Channel", a.Channel)
	assert.Equal(t, "https://img.youtube.com/vi/abc123/maxresdefault.jpg", a.Thumbnail)
	assert.True(t, a.HasTranscript())

	other, err := p.FetchVideoInfo(ctx, "zzz999")
	require.NoError(t, err)
	assert.NotEqual(t, a.Views, other.Views)
}

func TestFetchVideoInfoShortID(t *testing.T) {
	v, err := newTestProvider().FetchVideoInfo(context.Background(), "ab")
	require.NoError(t, err)
	assert.Equal(t, "Sample Video ab", v.Title)
}

func TestSearchVideos(t *testing.T) {
	p := newTestProvider()
	res, err := p.SearchVideos(context.Background(), "golang", 3)
	require.NoError(t, err)
	require.Len(t, res, 3)
	assert.Equal(t, "golang - Sample Video 1", res[0].Title)
	assert.Equal(t, "golang - Sample Video 3", res[2].Title)
	for _, v := range res {
		_, err := entity.ParseVideoID(v.ID)
		assert.NoError(t, err, v.ID)
	}

	again, err := p.SearchVideos(context.Background(), "golang", 3)
	require.NoError(t, err)
	assert.Equal(t, res, again)
	assert.NotEqual(t, res[0].ID, res[1].ID)
}

func TestGenerateBookContentExactTotals(t *testing.T) {
	p := newTestProvider()
	for _, target := range []int{1, 7, 999, 10000, 12345} {
		book, err := p.GenerateBookContent(context.Background(), []entity.VideoRef{{ID: "abc123"}}, entity.Settings{TargetLength: target, Tone: entity.ToneFormal, Language: "ja"})
		require.NoError(t, err)
		require.Len(t, book.Chapters, 5)
		assert.Equal(t, target, book.TotalChars, "target %d", target)

		sum := 0
		for i, ch := range book.Chapters {
			assert.Equal(t, i+1, ch.ID)
			assert.Equal(t, entity.CharCount(ch.Content), ch.CharCount)
			sum += ch.CharCount
		}
		assert.Equal(t, target, sum)
	}
}

func TestGenerateBookContentLayout(t *testing.T) {
	book, err := newTestProvider().GenerateBookContent(context.Background(), []entity.VideoRef{{ID: "a"}, {ID: "b"}}, entity.DefaultSettings())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(book.Chapters[0].Title, "Introduction: "))
	assert.True(t, strings.HasPrefix(book.Chapters[4].Title, "Conclusion: "))
	assert.Equal(t, 1250, book.Chapters[0].CharCount)
	assert.Equal(t, 2500, book.Chapters[1].CharCount)
	assert.Equal(t, 1250, book.Chapters[4].CharCount)
	assert.Equal(t, 2, book.Metadata.SourceVideos)
	assert.Equal(t, "mock", book.Metadata.Provider)
	assert.Equal(t, fixedNow, book.Metadata.GeneratedAt)
}

func TestGenerateBookContentFollowsTemplate(t *testing.T) {
	tpl, ok := entity.FindTemplate("business")
	require.True(t, ok)
	settings := entity.DefaultSettings().ApplyTemplate(tpl)

	book, err := newTestProvider().GenerateBookContent(context.Background(), nil, settings)
	require.NoError(t, err)
	require.Len(t, book.Chapters, 6)
	assert.Equal(t, "Introduction: 現状分析", book.Chapters[0].Title)
	assert.Equal(t, 15000, book.TotalChars)

	short := entity.Template{ID: "x", Structure: []string{"一"}}
	settings.Template = &short
	book, err = newTestProvider().GenerateBookContent(context.Background(), nil, settings)
	require.NoError(t, err)
	assert.Len(t, book.Chapters, 3)
}

func TestGenerateBookContentRejectsInvalidLength(t *testing.T) {
	_, err := newTestProvider().GenerateBookContent(context.Background(), nil, entity.Settings{})
	assert.Error(t, err)
}

func TestEnhanceChapter(t *testing.T) {
	p := newTestProvider()
	ch := entity.Chapter{ID: 1, Title: "第1章：基礎概念"}
	ch.SetContent("これは文です。次の文です。")

	out, err := p.EnhanceChapter(context.Background(), ch, []string{"structure", "readability", "structure", "seo"})
	require.NoError(t, err)

	assert.Equal(t, []string{"structure", "readability", "seo"}, out.AppliedEnhancements)
	assert.True(t, strings.HasPrefix(out.Content, "# 第1章：基礎概念\n\n"))
	assert.Contains(t, out.Content, "これは文です。\n\n次の文です。")
	assert.Contains(t, out.Content, "キーワード: 第1章, 基礎概念")
	assert.Equal(t, entity.CharCount(out.Content), out.CharCount)
	require.NotNil(t, out.LastEnhanced)
	assert.Equal(t, fixedNow, *out.LastEnhanced)

	assert.Equal(t, "これは文です。次の文です。", ch.Content, "input chapter must not be mutated")
}

func TestEnhanceChapterEachTransformChangesContent(t *testing.T) {
	p := newTestProvider()
	ch := entity.Chapter{ID: 1, Title: "Title words"}
	ch.SetContent("本文です。  \n\n\n\n次。")
	for _, e := range entity.Enhancements() {
		out, err := p.EnhanceChapter(context.Background(), ch, []string{e.ID})
		require.NoError(t, err, e.ID)
		assert.NotEqual(t, ch.Content, out.Content, e.ID)
	}
}

func TestEnhanceChapterRejectsUnknown(t *testing.T) {
	_, err := newTestProvider().EnhanceChapter(context.Background(), entity.Chapter{}, []string{"bogus"})
	assert.Error(t, err)
	_, err = newTestProvider().EnhanceChapter(context.Background(), entity.Chapter{}, nil)
	assert.Error(t, err)
}

func TestGenerateSegment(t *testing.T) {
	p := newTestProvider()
	seg, err := p.GenerateSegment(context.Background(), "基礎概念", "", 842)
	require.NoError(t, err)
	assert.Equal(t, 842, seg.CharCount)
	assert.Equal(t, 842, entity.CharCount(seg.Content))
	assert.Contains(t, seg.Content, "## AI生成セグメント")

	seg, err = p.GenerateSegment(context.Background(), "t", "", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultSegmentChars, seg.CharCount)

	seg, err = p.GenerateSegment(context.Background(), "t", "", 10)
	require.NoError(t, err)
	assert.Equal(t, 10, seg.CharCount)
}

func TestAssist(t *testing.T) {
	p := newTestProvider()
	r, err := p.Assist(context.Background(), "章構成をどう思う？", entity.AssistantContext{})
	require.NoError(t, err)
	assert.Contains(t, r.Response, "章構成について分析しました")

	r, err = p.Assist(context.Background(), "hello", entity.AssistantContext{})
	require.NoError(t, err)
	assert.Equal(t, defaultAssistantReply, r.Response)
	assert.Equal(t, fixedNow, r.Timestamp)
}
