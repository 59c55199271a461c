package handler

import (
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"

	"yt-ebook-api/internal/application/editor"
	"yt-ebook-api/internal/application/export"
	"yt-ebook-api/internal/domain/entity"
	"yt-ebook-api/internal/domain/repository"
	"yt-ebook-api/internal/interfaces/http/dto"
	apperrors "yt-ebook-api/pkg/errors"
	"yt-ebook-api/pkg/logger"
)

// ExportHandler 电子书导出处理器
type ExportHandler struct {
	projects repository.ProjectRepository
	sessions *editor.Manager
	exporter *export.Exporter
}

// NewExportHandler 创建导出处理器
func NewExportHandler(projects repository.ProjectRepository, sessions *editor.Manager, exporter *export.Exporter) *ExportHandler {
	return &ExportHandler{
		projects: projects,
		sessions: sessions,
		exporter: exporter,
	}
}

// Export 导出已完成的项目
// @Summary 导出电子书
// @Description 导出前先保存打开中的编辑会话
// @Tags Export
// @Produce application/epub+zip,text/markdown,text/html
// @Param pid path string true "项目 ID"
// @Param format query string false "epub|markdown|html" default(epub)
// @Success 200 {file} binary
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /v1/projects/{pid}/export [get]
func (h *ExportHandler) Export(c *gin.Context) {
	ctx := c.Request.Context()
	projectID := dto.BindProjectID(c)
	format := c.DefaultQuery("format", string(export.FormatEPUB))

	if _, err := export.ParseFormat(format); err != nil {
		respondError(c, err)
		return
	}
	if err := h.sessions.FlushProject(ctx, projectID); err != nil {
		respondError(c, err)
		return
	}

	project, err := h.projects.Get(ctx, projectID)
	if err != nil {
		respondError(c, err)
		return
	}
	if project.Status != entity.ProjectStatusCompleted {
		respondError(c, apperrors.Newf(apperrors.CodeConflict, "project %s is %s", projectID, project.Status))
		return
	}

	result, err := h.exporter.Export(project, format)
	if err != nil {
		respondError(c, err)
		return
	}

	logger.Info(ctx, "project exported", "project_id", projectID, "format", format, "bytes", len(result.Body))
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": result.Filename}))
	c.Data(http.StatusOK, result.ContentType, result.Body)
}

// Formats 导出格式目录
// @Router /v1/export/formats [get]
func (h *ExportHandler) Formats(c *gin.Context) {
	dto.Success(c, &dto.ExportFormatsResponse{Items: export.Formats()})
}
