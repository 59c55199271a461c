// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"time"

	"yt-ebook-api/internal/application/export"
	"yt-ebook-api/internal/application/pipeline"
	"yt-ebook-api/internal/domain/entity"
)

// GenerationResponse 生成状态
// Run 为空表示本进程没有运行记录（例如由 job-worker 执行），此时只返回项目状态
type GenerationResponse struct {
	ProjectID string               `json:"projectId"`
	Status    entity.ProjectStatus `json:"status"`
	Queued    bool                 `json:"queued,omitempty"`
	Run       *pipeline.Snapshot   `json:"run,omitempty"`
}

// ResolveVideoRequest URL 解析请求
type ResolveVideoRequest struct {
	Input string `json:"input" binding:"required"`
}

// ResolveVideoResponse URL 解析结果
type ResolveVideoResponse struct {
	ID       string `json:"id"`
	WatchURL string `json:"watchUrl"`
}

// VideoSearchResponse 视频搜索结果
type VideoSearchResponse struct {
	Query  string            `json:"query"`
	Videos []entity.VideoRef `json:"videos"`
}

// AssistantRequest 助手对话请求
type AssistantRequest struct {
	Message   string `json:"message" binding:"required"`
	ProjectID string `json:"projectId,omitempty"`
}

// CatalogResponse 只读目录
type CatalogResponse[T any] struct {
	Items []T `json:"items"`
}

// ExportFormatsResponse 导出格式目录
type ExportFormatsResponse = CatalogResponse[export.FormatInfo]

// StagesResponse 流水线阶段目录
type StagesResponse = CatalogResponse[pipeline.StageInfo]

// GenerationEvent 日志流事件
type GenerationEvent struct {
	Type      string                     `json:"type"`
	Entry     *entity.GenerationLogEntry `json:"entry,omitempty"`
	Snapshot  *pipeline.Snapshot         `json:"snapshot,omitempty"`
	Timestamp time.Time                  `json:"timestamp"`
}

// 日志流事件类型
const (
	EventSnapshot = "snapshot"
	EventLog      = "log"
	EventDone     = "done"
)
