package handler

import (
	"github.com/gin-gonic/gin"

	"yt-ebook-api/internal/application/editor"
	"yt-ebook-api/internal/application/pipeline"
	"yt-ebook-api/internal/domain/entity"
	"yt-ebook-api/internal/domain/repository"
	"yt-ebook-api/internal/interfaces/http/dto"
	apperrors "yt-ebook-api/pkg/errors"
)

// ProjectHandler 项目处理器
type ProjectHandler struct {
	projects repository.ProjectRepository
	runs     *pipeline.Registry
	sessions *editor.Manager
}

// NewProjectHandler 创建项目处理器
func NewProjectHandler(projects repository.ProjectRepository, runs *pipeline.Registry, sessions *editor.Manager) *ProjectHandler {
	return &ProjectHandler{
		projects: projects,
		runs:     runs,
		sessions: sessions,
	}
}

// ListProjects 获取项目列表
// @Summary 获取项目列表
// @Description 按创建顺序返回项目摘要，可按状态过滤
// @Tags Projects
// @Produce json
// @Param status query string false "pending|processing|completed|error"
// @Success 200 {object} dto.Response[dto.ProjectListResponse]
// @Router /v1/projects [get]
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	var filter *repository.ProjectFilter
	if s := c.Query("status"); s != "" {
		status := entity.ProjectStatus(s)
		if !status.Valid() {
			respondError(c, apperrors.ErrInvalidParam.WithDetail("unknown status: "+s))
			return
		}
		filter = &repository.ProjectFilter{Status: status}
	}

	projects, err := h.projects.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	dto.Success(c, dto.ToProjectListResponse(projects))
}

// CreateProject 创建项目
// @Summary 创建项目
// @Description 视频可以是 ID、URL 或搜索结果对象；templateId 先于 settings 应用
// @Tags Projects
// @Accept json
// @Produce json
// @Param body body dto.CreateProjectRequest true "项目信息"
// @Success 201 {object} dto.Response[entity.Project]
// @Failure 400 {object} dto.ErrorResponse
// @Router /v1/projects [post]
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	var req dto.CreateProjectRequest
	if !bindJSON(c, &req) {
		return
	}

	videos, err := req.ToVideoRefs()
	if err != nil {
		respondError(c, err)
		return
	}
	settings, err := req.ToSettings()
	if err != nil {
		respondError(c, err)
		return
	}

	project, err := h.projects.Create(c.Request.Context(), req.Title, videos, settings)
	if err != nil {
		respondError(c, err)
		return
	}
	dto.Created(c, project)
}

// GetProject 获取项目详情
// @Summary 获取项目详情
// @Tags Projects
// @Produce json
// @Param pid path string true "项目 ID"
// @Success 200 {object} dto.Response[entity.Project]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/projects/{pid} [get]
func (h *ProjectHandler) GetProject(c *gin.Context) {
	project, err := h.projects.Get(c.Request.Context(), dto.BindProjectID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	dto.Success(c, project)
}

// UpdateProject 更新项目标题与设置
// @Summary 更新项目
// @Tags Projects
// @Accept json
// @Produce json
// @Param pid path string true "项目 ID"
// @Param body body dto.UpdateProjectRequest true "更新内容"
// @Success 200 {object} dto.Response[entity.Project]
// @Router /v1/projects/{pid} [patch]
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	ctx := c.Request.Context()
	projectID := dto.BindProjectID(c)

	var req dto.UpdateProjectRequest
	if !bindJSON(c, &req) {
		return
	}

	current, err := h.projects.Get(ctx, projectID)
	if err != nil {
		respondError(c, err)
		return
	}

	patch := repository.ProjectPatch{Title: req.Title}
	if req.Settings != nil || req.TemplateID != nil {
		settings := current.Settings.Clone()
		if req.TemplateID != nil {
			if *req.TemplateID == "" {
				settings.Template = nil
			} else {
				t, ok := entity.FindTemplate(*req.TemplateID)
				if !ok {
					respondError(c, apperrors.Validation("unknown template %q", *req.TemplateID))
					return
				}
				settings = settings.ApplyTemplate(t)
			}
		}
		settings = req.Settings.Apply(settings)
		patch.Settings = &settings
	}
	if patch.IsEmpty() {
		dto.Success(c, current)
		return
	}

	project, err := h.projects.Update(ctx, projectID, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	dto.Success(c, project)
}

// DeleteProject 删除项目，同时丢弃运行记录与未保存的编辑
// @Summary 删除项目
// @Tags Projects
// @Param pid path string true "项目 ID"
// @Success 204
// @Router /v1/projects/{pid} [delete]
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	projectID := dto.BindProjectID(c)

	h.sessions.Discard(projectID)
	if err := h.projects.Delete(c.Request.Context(), projectID); err != nil {
		respondError(c, err)
		return
	}
	h.runs.Forget(projectID)
	dto.NoContent(c)
}

// Stats 概览统计
// @Summary 概览统计
// @Tags Projects
// @Produce json
// @Success 200 {object} dto.Response[entity.DashboardStats]
// @Router /v1/stats [get]
func (h *ProjectHandler) Stats(c *gin.Context) {
	stats, err := h.projects.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	dto.Success(c, stats)
}
