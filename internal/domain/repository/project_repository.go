// Package repository 定义数据访问层接口
package repository

import (
	"context"
	"time"

	"yt-ebook-api/internal/domain/entity"
)

// ProjectFilter 项目过滤条件
type ProjectFilter struct {
	Status entity.ProjectStatus
}

// Match 检查项目是否满足过滤条件
func (f *ProjectFilter) Match(p *entity.Project) bool {
	if f == nil {
		return true
	}
	return f.Status == "" || p.Status == f.Status
}

// ProjectRepository 项目仓储接口
type ProjectRepository interface {
	// List 按创建顺序获取项目列表
	List(ctx context.Context, filter *ProjectFilter) ([]*entity.Project, error)

	// Create 创建项目，标题为空、视频为空或设置非法时返回校验错误且不落盘
	Create(ctx context.Context, title string, videos []entity.VideoRef, settings entity.Settings) (*entity.Project, error)

	// Get 根据 ID 获取项目
	Get(ctx context.Context, id string) (*entity.Project, error)

	// Update 按字段合并更新项目
	Update(ctx context.Context, id string, patch ProjectPatch) (*entity.Project, error)

	// Delete 删除项目，ID 不存在时不报错
	Delete(ctx context.Context, id string) error

	// Stats 获取项目概览统计
	Stats(ctx context.Context) (*entity.DashboardStats, error)
}

// ProjectPatch 项目部分更新，nil 字段保持不变
type ProjectPatch struct {
	Title       *string
	Videos      *[]entity.VideoRef
	Settings    *entity.Settings
	Status      *entity.ProjectStatus
	GeneratedAt *time.Time
	AIEnhanced  *bool

	// Chapters 整体替换章节序列
	Chapters *[]entity.Chapter

	// ChapterPatches 按章节 ID 修改单个字段，在 Chapters 之后应用
	ChapterPatches []ChapterPatch
}

// IsEmpty 检查补丁是否不含任何修改
func (p ProjectPatch) IsEmpty() bool {
	return p.Title == nil && p.Videos == nil && p.Settings == nil && p.Status == nil &&
		p.GeneratedAt == nil && p.AIEnhanced == nil && p.Chapters == nil && len(p.ChapterPatches) == 0
}

// ChapterPatch 单个章节的字段级更新
type ChapterPatch struct {
	ID                  int
	Title               *string
	Content             *string
	AppliedEnhancements *[]string
	LastEnhanced        *time.Time
}

// StatusPatch 仅修改状态的补丁
func StatusPatch(status entity.ProjectStatus) ProjectPatch {
	return ProjectPatch{Status: &status}
}
