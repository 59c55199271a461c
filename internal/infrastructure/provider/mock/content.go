package mock

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"yt-ebook-api/internal/domain/entity"
)

// 章节数范围
const (
	minChapters     = 3
	maxChapters     = 6
	defaultChapters = 5
)

var defaultChapterLabels = []string{"概要と目標", "基礎概念", "実践的アプローチ", "応用例と事例", "まとめと今後の展望"}

const filler = "詳細な説明がここに続きます。"

// GenerateBookContent 生成总字数恰好等于 targetLength 的章节
func (p *Provider) GenerateBookContent(_ context.Context, videos []entity.VideoRef, settings entity.Settings) (*entity.BookContent, error) {
	if settings.TargetLength <= 0 {
		return nil, fmt.Errorf("targetLength must be positive")
	}

	labels := chapterLabels(settings.Template)
	n := len(labels)
	shares := chapterShares(settings.TargetLength, n)

	chapters := make([]entity.Chapter, n)
	for i, label := range labels {
		ch := entity.Chapter{ID: i + 1, Title: chapterTitle(i, n, label)}
		ch.SetContent(fitRunes(sampleContent(label), shares[i]))
		chapters[i] = ch
	}

	book := &entity.BookContent{
		Chapters: chapters,
		Metadata: entity.BookMetadata{
			GeneratedAt:  p.now().UTC(),
			SourceVideos: len(videos),
			Tone:         settings.Tone,
			Language:     settings.Language,
			Provider:     providerName,
		},
	}
	book.Normalize()
	return book, nil
}

// chapterLabels 章节数取模板结构长度并限制在 3..6，无模板时为 5
func chapterLabels(t *entity.Template) []string {
	if t == nil || len(t.Structure) == 0 {
		return append([]string(nil), defaultChapterLabels...)
	}
	labels := append([]string(nil), t.Structure...)
	if len(labels) > maxChapters {
		labels = labels[:maxChapters]
	}
	for i := len(labels); i < minChapters; i++ {
		labels = append(labels, defaultChapterLabels[i])
	}
	return labels
}

func chapterTitle(i, n int, label string) string {
	switch i {
	case 0:
		return "Introduction: " + label
	case n - 1:
		return "Conclusion: " + label
	default:
		return fmt.Sprintf("Chapter %d: %s", i, label)
	}
}

// chapterShares 序章与结论各占正文章节的一半，最后一章吸收取整余数
func chapterShares(total, n int) []int {
	weights := make([]int, n)
	sum := 0
	for i := range weights {
		w := 2
		if i == 0 || i == n-1 {
			w = 1
		}
		weights[i] = w
		sum += w
	}
	shares := make([]int, n)
	assigned := 0
	for i := 0; i < n-1; i++ {
		shares[i] = total * weights[i] / sum
		assigned += shares[i]
	}
	shares[n-1] = total - assigned
	return shares
}

func sampleContent(topic string) string {
	return fmt.Sprintf(`# %[1]s

この章では、%[1]sについて詳しく解説します。

## 概要

%[1]sは現代において非常に重要な概念です。この章を通じて、基本的な理解から実践的な応用まで、包括的に学習していきましょう。

## 基本概念

- **基本的な概念**: 理論的な基盤となる考え方
- **歴史的背景**: これまでの発展の経緯
- **現在の位置づけ**: 現代社会での役割と重要性

## 実践的応用

**例1**: 日常生活での活用
**例2**: ビジネスでの応用

## まとめ

1. 基本概念の理解が重要
2. 実践的な応用が効果的
3. 継続的な学習が成功の鍵

## 補足説明

`, topic)
}

// fitRunes 用填充文本补齐或截断到恰好 n 个码点
func fitRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) >= n {
		return string(r[:n])
	}
	fill := []rune(filler)
	out := make([]rune, 0, n)
	out = append(out, r...)
	for i := 0; len(out) < n; i++ {
		out = append(out, fill[i%len(fill)])
	}
	return string(out)
}

var (
	excessBlankLines = regexp.MustCompile(`\n{3,}`)
	trailingSpaces   = regexp.MustCompile(`[ \t]+\n`)
)

// transforms 每个增强项对应一个确定性文本变换
var transforms = map[string]func(title, content string) string{
	entity.EnhancementReadability: func(_, content string) string {
		out := strings.ReplaceAll(content, "。", "。\n\n")
		return strings.TrimRight(excessBlankLines.ReplaceAllString(out, "\n\n"), "\n")
	},
	entity.EnhancementExamples: func(_, content string) string {
		return content + "\n\n## 実例\n\n具体的な事例を通して、この概念をより深く理解しましょう。\n\n**事例1**: 実際のビジネスシーンでの活用\n\n**事例2**: 日常生活での応用例"
	},
	entity.EnhancementStructure: func(title, content string) string {
		heading := "# " + title
		if strings.HasPrefix(content, heading) {
			return content
		}
		return heading + "\n\n" + content
	},
	entity.EnhancementEngagement: func(_, content string) string {
		return content + "\n\n## 読者への質問\n\n💭 この内容について、あなたはどう思いますか？\n\n🎯 実際に試してみたいことはありますか？"
	},
	entity.EnhancementSEO: func(title, content string) string {
		words := titleKeywords(title)
		if len(words) == 0 {
			return content
		}
		return content + "\n\nキーワード: " + strings.Join(words, ", ")
	},
	entity.EnhancementFormatting: func(_, content string) string {
		out := trailingSpaces.ReplaceAllString(content+"\n", "\n")
		out = excessBlankLines.ReplaceAllString(out, "\n\n")
		return strings.TrimRight(out, "\n") + "\n\n---"
	},
}

// titleKeywords 按空白与标点切分标题
func titleKeywords(title string) []string {
	fields := strings.FieldsFunc(title, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r) || r == '：' || r == '・'
	})
	seen := make(map[string]bool, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}

// EnhanceChapter 按请求顺序依次应用变换
func (p *Provider) EnhanceChapter(_ context.Context, chapter entity.Chapter, enhancementIDs []string) (*entity.Chapter, error) {
	ids := entity.DedupeEnhancementIDs(enhancementIDs)
	if len(ids) == 0 {
		return nil, fmt.Errorf("no enhancements requested")
	}
	content := chapter.Content
	for _, id := range ids {
		fn, ok := transforms[id]
		if !ok {
			return nil, fmt.Errorf("unknown enhancement %q", id)
		}
		content = fn(chapter.Title, content)
	}

	out := chapter.Clone()
	out.SetContent(content)
	now := p.now().UTC()
	out.LastEnhanced = &now
	out.AppliedEnhancements = ids
	return &out, nil
}

// GenerateSegment 生成恰好 targetChars 个码点的独立片段
func (p *Provider) GenerateSegment(_ context.Context, chapterTitle, _ string, targetChars int) (*entity.Segment, error) {
	if targetChars <= 0 {
		targetChars = DefaultSegmentChars
	}
	block := fmt.Sprintf(`

## AI生成セグメント

%[1]sに関するこの追加セクションでは、より詳細な解説を提供します。

### 重要なポイント

1. **理論的背景**: 基本的な概念から応用まで
2. **実践的応用**: 実際の使用例とベストプラクティス
3. **注意点**: 実装時に気をつけるべき事項

### 詳細な説明

この部分では、%[1]sについて更に深く掘り下げます。`, chapterTitle)

	content := fitRunes(block, targetChars)
	return &entity.Segment{
		Content:     content,
		CharCount:   entity.CharCount(content),
		GeneratedAt: p.now().UTC(),
	}, nil
}

var assistantReplies = []struct {
	keywords []string
	reply    string
}{
	{
		keywords: []string{"章構成", "structure"},
		reply:    "章構成について分析しました。現在の構成は読者の理解度を考慮してよく設計されています。さらに改善するなら、各章の最後に要点をまとめるセクションを追加することをお勧めします。",
	},
	{
		keywords: []string{"内容", "content"},
		reply:    "コンテンツの品質を向上させるために、具体例を増やし、読者の実体験と結びつけられるような内容を追加しましょう。",
	},
}

const defaultAssistantReply = "ご質問にお答えします。電子書籍の品質向上のために、どの部分を重点的に改善したいかお聞かせください。"

// Assist 按关键词返回固定回复
func (p *Provider) Assist(_ context.Context, message string, _ entity.AssistantContext) (*entity.AssistantReply, error) {
	reply := defaultAssistantReply
	lower := strings.ToLower(message)
	for _, c := range assistantReplies {
		if containsAny(lower, c.keywords) {
			reply = c.reply
			break
		}
	}
	return &entity.AssistantReply{Response: reply, Timestamp: p.now().UTC(), Provider: providerName}, nil
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
