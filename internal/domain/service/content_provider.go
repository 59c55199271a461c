// Package service 定义领域层对外部内容能力的端口（port）。
// 基础设施层的各提供方实现这些接口，应用层的网关按链路组合它们。
package service

import (
	"context"

	"yt-ebook-api/internal/domain/entity"
)

// Named 所有提供方都暴露一个稳定名称，用于日志与指标标签
type Named interface {
	Name() string
}

// VideoInfoProvider 获取单个视频的元数据
type VideoInfoProvider interface {
	Named
	FetchVideoInfo(ctx context.Context, videoID string) (*entity.VideoRef, error)
}

// VideoSearchProvider 按关键词搜索视频
type VideoSearchProvider interface {
	Named
	SearchVideos(ctx context.Context, query string, maxResults int) ([]entity.VideoRef, error)
}

// BookContentProvider 根据视频与设置生成整本书的章节
type BookContentProvider interface {
	Named
	GenerateBookContent(ctx context.Context, videos []entity.VideoRef, settings entity.Settings) (*entity.BookContent, error)
}

// ChapterEnhancer 对单章应用一组增强项
type ChapterEnhancer interface {
	Named
	EnhanceChapter(ctx context.Context, chapter entity.Chapter, enhancementIDs []string) (*entity.Chapter, error)
}

// SegmentGenerator 为章节生成追加片段
type SegmentGenerator interface {
	Named
	GenerateSegment(ctx context.Context, chapterTitle, existingContent string, targetChars int) (*entity.Segment, error)
}

// AssistantResponder 编辑助手对话
type AssistantResponder interface {
	Named
	Assist(ctx context.Context, message string, actx entity.AssistantContext) (*entity.AssistantReply, error)
}

// TranscriptSource 获取视频字幕；ok 为 false 表示字幕不存在（非错误）
type TranscriptSource interface {
	Named
	GetTranscript(ctx context.Context, videoID string) (transcript string, ok bool, err error)
}
