package dto

import (
	"yt-ebook-api/internal/application/editor"
	"yt-ebook-api/internal/domain/entity"
)

// TextRequest 章节内容或标题更新请求
type TextRequest struct {
	Text *string `json:"text" binding:"required"`
}

// SegmentRequest 追加生成请求
type SegmentRequest struct {
	TargetCharCount int `json:"targetCharCount" binding:"required,gt=0"`
}

// EnhancementsRequest 应用增强请求
type EnhancementsRequest struct {
	EnhancementIDs []string `json:"enhancementIds"`
}

// ChapterResponse 章节编辑视图
type ChapterResponse struct {
	ProjectID string         `json:"projectId"`
	Chapter   entity.Chapter `json:"chapter"`
	Metrics   editor.Metrics `json:"metrics"`
	Pending   []editor.Field `json:"pending"`
	Debounce  int64          `json:"debounceMs"`
}

// ToChapterResponse 转换会话视图
func ToChapterResponse(v editor.View, debounceMs int64) *ChapterResponse {
	return &ChapterResponse{
		ProjectID: v.ProjectID,
		Chapter:   v.Chapter,
		Metrics:   v.Metrics,
		Pending:   v.Pending,
		Debounce:  debounceMs,
	}
}
