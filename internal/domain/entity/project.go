// Package entity 定义领域实体
package entity

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// ProjectStatus 项目状态
type ProjectStatus string

const (
	ProjectStatusPending    ProjectStatus = "pending"
	ProjectStatusProcessing ProjectStatus = "processing"
	ProjectStatusCompleted  ProjectStatus = "completed"
	ProjectStatusError      ProjectStatus = "error"
)

// projectTransitions 状态迁移表，未列出的迁移（包括自迁移）一律拒绝
var projectTransitions = map[ProjectStatus][]ProjectStatus{
	ProjectStatusPending:    {ProjectStatusProcessing, ProjectStatusError},
	ProjectStatusProcessing: {ProjectStatusCompleted, ProjectStatusError},
}

// Valid 检查状态是否为已知取值
func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectStatusPending, ProjectStatusProcessing, ProjectStatusCompleted, ProjectStatusError:
		return true
	}
	return false
}

// IsTerminal 检查是否为终态
func (s ProjectStatus) IsTerminal() bool {
	return s == ProjectStatusCompleted || s == ProjectStatusError
}

// CanTransitionTo 检查是否允许迁移到目标状态
func (s ProjectStatus) CanTransitionTo(next ProjectStatus) bool {
	for _, allowed := range projectTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Project 电子书项目聚合根
type Project struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Videos      []VideoRef    `json:"videos"`
	Settings    Settings      `json:"settings"`
	Status      ProjectStatus `json:"status"`
	Chapters    []Chapter     `json:"chapters"`
	TotalChars  int           `json:"totalChars"`
	CreatedAt   time.Time     `json:"createdAt"`
	GeneratedAt *time.Time    `json:"generatedAt,omitempty"`
	AIEnhanced  bool          `json:"aiEnhanced"`
}

// NewProject 创建新项目，视频按 id 去重并保留首次出现的顺序
func NewProject(title string, videos []VideoRef, settings Settings, now time.Time) *Project {
	return &Project{
		ID:         NewProjectID(now),
		Title:      strings.TrimSpace(title),
		Videos:     DedupeVideos(videos),
		Settings:   settings.Clone(),
		Status:     ProjectStatusPending,
		Chapters:   []Chapter{},
		TotalChars: 0,
		CreatedAt:  now,
	}
}

// NewProjectID 生成 <unix 毫秒>-<6 位十六进制> 形式的项目 ID
func NewProjectID(now time.Time) string {
	var suffix [3]byte
	_, _ = rand.Read(suffix[:])
	return fmt.Sprintf("%d-%s", now.UnixMilli(), hex.EncodeToString(suffix[:]))
}

// Transition 迁移项目状态
func (p *Project) Transition(next ProjectStatus) error {
	if !p.Status.CanTransitionTo(next) {
		return &TransitionError{From: p.Status, To: next}
	}
	p.Status = next
	return nil
}

// RecalculateTotals 按章节重算总字数
func (p *Project) RecalculateTotals() {
	total := 0
	for _, ch := range p.Chapters {
		total += ch.CharCount
	}
	p.TotalChars = total
}

// Chapter 按 ID 查找章节
func (p *Project) Chapter(id int) (*Chapter, bool) {
	for i := range p.Chapters {
		if p.Chapters[i].ID == id {
			return &p.Chapters[i], true
		}
	}
	return nil, false
}

// Clone 深拷贝项目
func (p *Project) Clone() *Project {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Videos = make([]VideoRef, len(p.Videos))
	for i, v := range p.Videos {
		cp.Videos[i] = v.Clone()
	}
	cp.Chapters = make([]Chapter, len(p.Chapters))
	for i, ch := range p.Chapters {
		cp.Chapters[i] = ch.Clone()
	}
	cp.Settings = p.Settings.Clone()
	if p.GeneratedAt != nil {
		t := *p.GeneratedAt
		cp.GeneratedAt = &t
	}
	return &cp
}

// TransitionError 非法状态迁移
type TransitionError struct {
	From ProjectStatus
	To   ProjectStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid status transition %s -> %s", e.From, e.To)
}

// DashboardStats 项目概览统计
type DashboardStats struct {
	TotalProjects  int `json:"totalProjects"`
	TotalChars     int `json:"totalChars"`
	CompletedBooks int `json:"completedBooks"`
}

// ComputeStats 计算项目概览统计
func ComputeStats(projects []*Project) *DashboardStats {
	stats := &DashboardStats{TotalProjects: len(projects)}
	for _, p := range projects {
		stats.TotalChars += p.TotalChars
		if p.Status == ProjectStatusCompleted {
			stats.CompletedBooks++
		}
	}
	return stats
}
