package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"yt-ebook-api/internal/application/gateway"
	"yt-ebook-api/internal/domain/entity"
	"yt-ebook-api/internal/domain/repository"
	"yt-ebook-api/internal/interfaces/http/dto"
	apperrors "yt-ebook-api/pkg/errors"
)

// AssistantHandler AI 助手处理器
type AssistantHandler struct {
	projects repository.ProjectRepository
	gateway  *gateway.Gateway
}

// NewAssistantHandler 创建助手处理器
func NewAssistantHandler(projects repository.ProjectRepository, gw *gateway.Gateway) *AssistantHandler {
	return &AssistantHandler{projects: projects, gateway: gw}
}

// Chat 助手对话；带 projectId 时把项目标题与章节目录作为上下文
// @Summary 助手对话
// @Tags Assistant
// @Accept json
// @Produce json
// @Param body body dto.AssistantRequest true "消息"
// @Success 200 {object} dto.Response[entity.AssistantReply]
// @Failure 502 {object} dto.ErrorResponse
// @Router /v1/assistant [post]
func (h *AssistantHandler) Chat(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.AssistantRequest
	if !bindJSON(c, &req) {
		return
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		respondError(c, apperrors.Validation("message must not be blank"))
		return
	}

	var actx entity.AssistantContext
	if req.ProjectID != "" {
		project, err := h.projects.Get(ctx, req.ProjectID)
		if err != nil {
			respondError(c, err)
			return
		}
		actx = entity.AssistantContext{
			ProjectID:    project.ID,
			ProjectTitle: project.Title,
			TotalChars:   project.TotalChars,
		}
		for _, ch := range project.Chapters {
			actx.ChapterTitles = append(actx.ChapterTitles, ch.Title)
		}
	}

	reply, err := h.gateway.Assist(ctx, message, actx)
	if err != nil {
		respondError(c, err)
		return
	}
	dto.Success(c, reply)
}
