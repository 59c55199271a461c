// Package generative 基于 Eino ChatModel 的生成式内容提供方
package generative

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"

	"yt-ebook-api/internal/domain/entity"
	wfchain "yt-ebook-api/internal/workflow/chain"
	wfmodel "yt-ebook-api/internal/workflow/model"
	wfnode "yt-ebook-api/internal/workflow/node"
	workflowport "yt-ebook-api/internal/workflow/port"
)

const providerName = "generative"

// Provider 把网关操作映射到生成链，并把模型输出解析回领域结构
type Provider struct {
	chains *wfchain.BookChains
	llm    string
	now    func() time.Time
}

// New 创建生成式提供方
func New(factory workflowport.ChatModelFactory) *Provider {
	return &Provider{
		chains: wfchain.NewBookChains(factory),
		llm:    factory.DefaultName(),
		now:    time.Now,
	}
}

func (p *Provider) Name() string { return providerName }

// GenerateBookContent 生成整书；章节计划取自模板结构
func (p *Provider) GenerateBookContent(ctx context.Context, videos []entity.VideoRef, settings entity.Settings) (*entity.BookContent, error) {
	in := &wfmodel.BookContentInput{
		Videos:       make([]wfmodel.VideoDigest, 0, len(videos)),
		TargetLength: settings.TargetLength,
		Language:     settings.Language,
		Tone:         string(settings.Tone),
	}
	for _, v := range videos {
		d := wfmodel.VideoDigest{Title: v.Title, Channel: v.Channel, Description: v.Description}
		if v.Transcript != nil {
			d.Transcript = *v.Transcript
		}
		if d.Title == "" {
			d.Title = v.ID
		}
		in.Videos = append(in.Videos, d)
	}
	if settings.Template != nil {
		in.ChapterTitles = append(in.ChapterTitles, settings.Template.Structure...)
	}

	msg, err := p.chains.BookContent(ctx, in)
	if err != nil {
		return nil, err
	}
	var out wfmodel.BookContentOutput
	if err := decodeJSON(msg, &out); err != nil {
		return nil, err
	}

	chapters := make([]entity.Chapter, 0, len(out.Chapters))
	for _, d := range out.Chapters {
		if strings.TrimSpace(d.Title) == "" && strings.TrimSpace(d.Content) == "" {
			continue
		}
		ch := entity.Chapter{Title: strings.TrimSpace(d.Title)}
		ch.SetContent(d.Content)
		chapters = append(chapters, ch)
	}
	if len(chapters) == 0 {
		return nil, fmt.Errorf("model returned no chapters")
	}

	book := &entity.BookContent{
		Chapters: chapters,
		Metadata: entity.BookMetadata{
			GeneratedAt:  p.now().UTC(),
			SourceVideos: len(videos),
			Tone:         settings.Tone,
			Language:     settings.Language,
			Provider:     providerName + ":" + p.llm,
		},
	}
	book.Normalize()
	return book, nil
}

// EnhanceChapter 请求模型一次性应用全部增强项
func (p *Provider) EnhanceChapter(ctx context.Context, chapter entity.Chapter, enhancementIDs []string) (*entity.Chapter, error) {
	ids := entity.DedupeEnhancementIDs(enhancementIDs)
	specs := make([]wfmodel.EnhanceSpec, 0, len(ids))
	for _, id := range ids {
		e, ok := entity.FindEnhancement(id)
		if !ok {
			return nil, fmt.Errorf("unknown enhancement %q", id)
		}
		specs = append(specs, wfmodel.EnhanceSpec{ID: e.ID, Name: e.Name, Description: e.Description})
	}

	msg, err := p.chains.EnhanceChapter(ctx, &wfmodel.EnhanceChapterInput{
		ChapterTitle: chapter.Title,
		Content:      chapter.Content,
		Enhancements: specs,
	})
	if err != nil {
		return nil, err
	}
	var body wfmodel.ContentOutput
	if err := decodeJSON(msg, &body); err != nil {
		return nil, err
	}
	if strings.TrimSpace(body.Content) == "" {
		return nil, fmt.Errorf("model returned empty content")
	}

	out := chapter.Clone()
	out.SetContent(body.Content)
	now := p.now().UTC()
	out.LastEnhanced = &now
	out.AppliedEnhancements = ids
	return &out, nil
}

// GenerateSegment 生成追加片段
func (p *Provider) GenerateSegment(ctx context.Context, chapterTitle, existingContent string, targetChars int) (*entity.Segment, error) {
	msg, err := p.chains.Segment(ctx, &wfmodel.SegmentInput{
		ChapterTitle:    chapterTitle,
		ExistingContent: existingContent,
		TargetChars:     targetChars,
	})
	if err != nil {
		return nil, err
	}
	var body wfmodel.ContentOutput
	if err := decodeJSON(msg, &body); err != nil {
		return nil, err
	}
	if strings.TrimSpace(body.Content) == "" {
		return nil, fmt.Errorf("model returned empty segment")
	}
	content := body.Content
	if !strings.HasPrefix(content, "\n") {
		content = "\n\n" + content
	}
	return &entity.Segment{
		Content:     content,
		CharCount:   entity.CharCount(content),
		GeneratedAt: p.now().UTC(),
	}, nil
}

// Assist 助手回复为纯文本
func (p *Provider) Assist(ctx context.Context, message string, actx entity.AssistantContext) (*entity.AssistantReply, error) {
	msg, err := p.chains.Assistant(ctx, &wfmodel.AssistantInput{
		Message:       message,
		ProjectTitle:  actx.ProjectTitle,
		ChapterTitles: actx.ChapterTitles,
		TotalChars:    actx.TotalChars,
	})
	if err != nil {
		return nil, err
	}
	return &entity.AssistantReply{
		Response:  strings.TrimSpace(msg.Content),
		Timestamp: p.now().UTC(),
		Provider:  providerName + ":" + p.llm,
	}, nil
}

func decodeJSON(msg *schema.Message, out any) error {
	raw := wfnode.ExtractJSONObject(msg.Content)
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("parse model output: %w", err)
	}
	return nil
}
