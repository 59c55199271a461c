package handler

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"yt-ebook-api/internal/application/pipeline"
	"yt-ebook-api/internal/domain/entity"
	"yt-ebook-api/internal/domain/repository"
	"yt-ebook-api/internal/interfaces/http/dto"
)

// GenerationHandler 电子书生成处理器
type GenerationHandler struct {
	projects repository.ProjectRepository
	launcher pipeline.Launcher
	runs     *pipeline.Registry
	upgrader websocket.Upgrader
}

// NewGenerationHandler 创建生成处理器；allowedOrigins 为空或含 "*" 时不校验 WebSocket 来源
func NewGenerationHandler(projects repository.ProjectRepository, launcher pipeline.Launcher, runs *pipeline.Registry, allowedOrigins []string) *GenerationHandler {
	return &GenerationHandler{
		projects: projects,
		launcher: launcher,
		runs:     runs,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 || slices.Contains(allowed, "*") {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(allowed, origin)
	}
}

// Generate 启动生成
// @Summary 启动电子书生成
// @Description 项目必须处于 pending；默认立即返回 202，wait=true 时等待运行结束
// @Tags Generation
// @Produce json
// @Param pid path string true "项目 ID"
// @Param wait query bool false "等待运行结束"
// @Success 200 {object} dto.Response[dto.GenerationResponse]
// @Success 202 {object} dto.Response[dto.GenerationResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /v1/projects/{pid}/generate [post]
func (h *GenerationHandler) Generate(c *gin.Context) {
	ctx := c.Request.Context()
	projectID := dto.BindProjectID(c)

	run, err := h.launcher.Launch(ctx, projectID)
	if err != nil {
		respondError(c, err)
		return
	}

	// 任务已投递到消息流，由 job-worker 执行
	if run == nil {
		dto.Accepted(c, &dto.GenerationResponse{
			ProjectID: projectID,
			Status:    entity.ProjectStatusPending,
			Queued:    true,
		})
		return
	}

	if dto.QueryBool(c, "wait") {
		select {
		case <-run.Done():
		case <-ctx.Done():
			return
		}
		h.respondStatus(c, projectID)
		return
	}

	snap := run.Snapshot()
	dto.Accepted(c, &dto.GenerationResponse{
		ProjectID: projectID,
		Status:    entity.ProjectStatusProcessing,
		Run:       &snap,
	})
}

// Status 生成进度与日志
// @Summary 查询生成状态
// @Tags Generation
// @Produce json
// @Param pid path string true "项目 ID"
// @Success 200 {object} dto.Response[dto.GenerationResponse]
// @Router /v1/projects/{pid}/generation [get]
func (h *GenerationHandler) Status(c *gin.Context) {
	h.respondStatus(c, dto.BindProjectID(c))
}

func (h *GenerationHandler) respondStatus(c *gin.Context, projectID string) {
	project, err := h.projects.Get(c.Request.Context(), projectID)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := &dto.GenerationResponse{ProjectID: projectID, Status: project.Status}
	if run, err := h.runs.Get(projectID); err == nil {
		snap := run.Snapshot()
		resp.Run = &snap
	}
	dto.Success(c, resp)
}

// lookupRun 获取可订阅的运行，不存在时输出 404
func (h *GenerationHandler) lookupRun(c *gin.Context) (*pipeline.Run, bool) {
	run, err := h.runs.Get(dto.BindProjectID(c))
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return run, true
}
