package dto

import (
	"bytes"
	"encoding/json"
	"strings"

	"yt-ebook-api/internal/domain/entity"
	apperrors "yt-ebook-api/pkg/errors"
)

// VideoInput 创建项目时的视频：可以是 ID/URL 字符串，也可以是搜索结果对象
type VideoInput struct {
	Raw string
	Ref entity.VideoRef
}

// UnmarshalJSON 同时接受字符串与对象
func (v *VideoInput) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &v.Raw)
	}
	return json.Unmarshal(data, &v.Ref)
}

// ToVideoRef 解析视频 ID；对象形式保留其余元数据
func (v VideoInput) ToVideoRef() (entity.VideoRef, error) {
	input := v.Raw
	ref := entity.VideoRef{}
	if input == "" {
		ref = v.Ref.Clone()
		input = ref.ID
	}
	id, err := entity.ParseVideoID(input)
	if err != nil {
		return entity.VideoRef{}, apperrors.Validation("invalid video %q", input)
	}
	ref.ID = id
	return ref, nil
}

// SettingsRequest 设置覆盖项，未提供的字段保持基准值
type SettingsRequest struct {
	TargetLength  *int         `json:"targetLength,omitempty"`
	Language      *string      `json:"language,omitempty"`
	Tone          *entity.Tone `json:"tone,omitempty"`
	IncludeImages *bool        `json:"includeImages,omitempty"`
	AIEnhancement *bool        `json:"aiEnhancement,omitempty"`
}

// Apply 把覆盖项合并到 base
func (r *SettingsRequest) Apply(base entity.Settings) entity.Settings {
	if r == nil {
		return base
	}
	if r.TargetLength != nil {
		base.TargetLength = *r.TargetLength
	}
	if r.Language != nil {
		base.Language = strings.TrimSpace(*r.Language)
	}
	if r.Tone != nil {
		base.Tone = *r.Tone
	}
	if r.IncludeImages != nil {
		base.IncludeImages = *r.IncludeImages
	}
	if r.AIEnhancement != nil {
		base.AIEnhancement = *r.AIEnhancement
	}
	return base
}

// CreateProjectRequest 创建项目请求
type CreateProjectRequest struct {
	Title      string           `json:"title"`
	Videos     []VideoInput     `json:"videos"`
	Settings   *SettingsRequest `json:"settings,omitempty"`
	TemplateID string           `json:"templateId,omitempty"`
}

// ToSettings 默认设置 → 模板 → 显式覆盖
func (r *CreateProjectRequest) ToSettings() (entity.Settings, error) {
	settings := entity.DefaultSettings()
	if id := strings.TrimSpace(r.TemplateID); id != "" {
		t, ok := entity.FindTemplate(id)
		if !ok {
			return entity.Settings{}, apperrors.Validation("unknown template %q", id)
		}
		settings = settings.ApplyTemplate(t)
	}
	return r.Settings.Apply(settings), nil
}

// ToVideoRefs 解析全部视频，任一非法即失败
func (r *CreateProjectRequest) ToVideoRefs() ([]entity.VideoRef, error) {
	out := make([]entity.VideoRef, 0, len(r.Videos))
	for _, v := range r.Videos {
		ref, err := v.ToVideoRef()
		if err != nil {
			return nil, err
		}
		out = append(out, ref)
	}
	return out, nil
}

// UpdateProjectRequest 更新项目请求，只允许修改标题和设置
type UpdateProjectRequest struct {
	Title      *string          `json:"title,omitempty"`
	Settings   *SettingsRequest `json:"settings,omitempty"`
	TemplateID *string          `json:"templateId,omitempty"`
}

// ProjectSummary 列表项，不含章节正文
type ProjectSummary struct {
	ID           string               `json:"id"`
	Title        string               `json:"title"`
	Status       entity.ProjectStatus `json:"status"`
	VideoCount   int                  `json:"videoCount"`
	ChapterCount int                  `json:"chapterCount"`
	TotalChars   int                  `json:"totalChars"`
	Thumbnail    string               `json:"thumbnail,omitempty"`
	AIEnhanced   bool                 `json:"aiEnhanced"`
	CreatedAt    string               `json:"createdAt"`
	GeneratedAt  string               `json:"generatedAt,omitempty"`
}

// ProjectListResponse 项目列表响应
type ProjectListResponse struct {
	Projects []*ProjectSummary `json:"projects"`
	Total    int               `json:"total"`
}

const timeLayout = "2006-01-02T15:04:05.000Z07:00"

// ToProjectSummary 转换为列表项
func ToProjectSummary(p *entity.Project) *ProjectSummary {
	s := &ProjectSummary{
		ID:           p.ID,
		Title:        p.Title,
		Status:       p.Status,
		VideoCount:   len(p.Videos),
		ChapterCount: len(p.Chapters),
		TotalChars:   p.TotalChars,
		AIEnhanced:   p.AIEnhanced,
		CreatedAt:    p.CreatedAt.Format(timeLayout),
	}
	if len(p.Videos) > 0 {
		s.Thumbnail = p.Videos[0].Thumbnail
	}
	if p.GeneratedAt != nil {
		s.GeneratedAt = p.GeneratedAt.Format(timeLayout)
	}
	return s
}

// ToProjectListResponse 转换为列表响应
func ToProjectListResponse(projects []*entity.Project) *ProjectListResponse {
	out := make([]*ProjectSummary, 0, len(projects))
	for _, p := range projects {
		out = append(out, ToProjectSummary(p))
	}
	return &ProjectListResponse{Projects: out, Total: len(out)}
}
