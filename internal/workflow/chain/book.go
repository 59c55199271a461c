package chain

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/cloudwego/eino/schema"

	wfmodel "yt-ebook-api/internal/workflow/model"
	wfnode "yt-ebook-api/internal/workflow/node"
	workflowport "yt-ebook-api/internal/workflow/port"
	workflowprompt "yt-ebook-api/internal/workflow/prompt"
)

const (
	OperationBookContent    = "book_content"
	OperationEnhanceChapter = "enhance_chapter"
	OperationGenerateSeg    = "generate_segment"
	OperationAssistant      = "assistant"
)

// 输入到提示词中的素材上限（码点）
const (
	maxTranscriptRunes  = 4000
	maxDescriptionRunes = 600
	maxExistingRunes    = 1500
)

// BookChains 书籍相关的四条生成链
type BookChains struct {
	book      *promptChain[*wfmodel.BookContentInput]
	enhance   *promptChain[*wfmodel.EnhanceChapterInput]
	segment   *promptChain[*wfmodel.SegmentInput]
	assistant *promptChain[*wfmodel.AssistantInput]
}

// NewBookChains 创建生成链集合
func NewBookChains(factory workflowport.ChatModelFactory) *BookChains {
	return &BookChains{
		book: &promptChain[*wfmodel.BookContentInput]{
			factory:   factory,
			operation: OperationBookContent,
			promptID:  workflowprompt.PromptBookContentV1,
			jsonMode:  true,
			vars:      bookVars,
			options: func(in *wfmodel.BookContentInput) callOptions {
				return callOptions{Provider: in.Provider, Model: in.Model}
			},
		},
		enhance: &promptChain[*wfmodel.EnhanceChapterInput]{
			factory:   factory,
			operation: OperationEnhanceChapter,
			promptID:  workflowprompt.PromptEnhanceChapterV1,
			jsonMode:  true,
			vars:      enhanceVars,
			options: func(in *wfmodel.EnhanceChapterInput) callOptions {
				return callOptions{Provider: in.Provider, Model: in.Model}
			},
		},
		segment: &promptChain[*wfmodel.SegmentInput]{
			factory:   factory,
			operation: OperationGenerateSeg,
			promptID:  workflowprompt.PromptGenerateSegV1,
			jsonMode:  true,
			vars:      segmentVars,
			options: func(in *wfmodel.SegmentInput) callOptions {
				return callOptions{Provider: in.Provider, Model: in.Model}
			},
		},
		assistant: &promptChain[*wfmodel.AssistantInput]{
			factory:   factory,
			operation: OperationAssistant,
			promptID:  workflowprompt.PromptAssistantV1,
			vars:      assistantVars,
			options: func(in *wfmodel.AssistantInput) callOptions {
				return callOptions{Provider: in.Provider, Model: in.Model}
			},
		},
	}
}

// BookContent 生成整书 JSON 消息
func (c *BookChains) BookContent(ctx context.Context, in *wfmodel.BookContentInput) (*schema.Message, error) {
	if in == nil || len(in.Videos) == 0 {
		return nil, fmt.Errorf("videos are required")
	}
	if in.TargetLength <= 0 {
		return nil, fmt.Errorf("target_length is required")
	}
	return c.book.Invoke(ctx, in)
}

// EnhanceChapter 生成增强后的章节 JSON 消息
func (c *BookChains) EnhanceChapter(ctx context.Context, in *wfmodel.EnhanceChapterInput) (*schema.Message, error) {
	if in == nil || len(in.Enhancements) == 0 {
		return nil, fmt.Errorf("enhancements are required")
	}
	return c.enhance.Invoke(ctx, in)
}

// Segment 生成追加片段 JSON 消息
func (c *BookChains) Segment(ctx context.Context, in *wfmodel.SegmentInput) (*schema.Message, error) {
	if in == nil || in.TargetChars <= 0 {
		return nil, fmt.Errorf("target_chars is required")
	}
	return c.segment.Invoke(ctx, in)
}

// Assistant 生成助手回复（纯文本）
func (c *BookChains) Assistant(ctx context.Context, in *wfmodel.AssistantInput) (*schema.Message, error) {
	if in == nil || strings.TrimSpace(in.Message) == "" {
		return nil, fmt.Errorf("message is required")
	}
	return c.assistant.Invoke(ctx, in)
}

func bookVars(in *wfmodel.BookContentInput) map[string]any {
	var plan strings.Builder
	for i, title := range in.ChapterTitles {
		plan.WriteString(strconv.Itoa(i+1) + ". " + title + "\n")
	}
	if plan.Len() == 0 {
		plan.WriteString("Choose 5 chapters: an introduction, three body chapters and a conclusion.\n")
	}

	var videos strings.Builder
	for i, v := range in.Videos {
		fmt.Fprintf(&videos, "## Video %d: %s (%s)\n", i+1, v.Title, v.Channel)
		if d := strings.TrimSpace(v.Description); d != "" {
			videos.WriteString("Description: " + wfnode.TruncateByRunes(d, maxDescriptionRunes) + "\n")
		}
		if tr := strings.TrimSpace(v.Transcript); tr != "" {
			videos.WriteString("Transcript: " + wfnode.TruncateByRunes(tr, maxTranscriptRunes) + "\n")
		}
		videos.WriteString("\n")
	}

	return map[string]any{
		"language":      in.Language,
		"tone":          in.Tone,
		"target_length": in.TargetLength,
		"chapter_plan":  strings.TrimSpace(plan.String()),
		"video_block":   strings.TrimSpace(videos.String()),
	}
}

func enhanceVars(in *wfmodel.EnhanceChapterInput) map[string]any {
	var b strings.Builder
	for _, e := range in.Enhancements {
		fmt.Fprintf(&b, "- %s (%s): %s\n", e.ID, e.Name, e.Description)
	}
	return map[string]any{
		"chapter_title":     in.ChapterTitle,
		"enhancement_block": strings.TrimSpace(b.String()),
		"content":           in.Content,
	}
}

func segmentVars(in *wfmodel.SegmentInput) map[string]any {
	return map[string]any{
		"chapter_title": in.ChapterTitle,
		"target_chars":  in.TargetChars,
		"existing_tail": wfnode.TailByRunes(in.ExistingContent, maxExistingRunes),
	}
}

func assistantVars(in *wfmodel.AssistantInput) map[string]any {
	var b strings.Builder
	for i, title := range in.ChapterTitles {
		fmt.Fprintf(&b, "%d. %s\n", i+1, title)
	}
	list := strings.TrimSpace(b.String())
	if list == "" {
		list = "(none yet)"
	}
	title := strings.TrimSpace(in.ProjectTitle)
	if title == "" {
		title = "(untitled)"
	}
	return map[string]any{
		"project_title": title,
		"total_chars":   in.TotalChars,
		"chapter_list":  list,
		"message":       in.Message,
	}
}
