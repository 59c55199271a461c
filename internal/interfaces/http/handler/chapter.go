package handler

import (
	"github.com/gin-gonic/gin"

	"yt-ebook-api/internal/application/editor"
	"yt-ebook-api/internal/interfaces/http/dto"
)

// ChapterHandler 章节编辑处理器，每个章节对应一个编辑会话
type ChapterHandler struct {
	sessions *editor.Manager
}

// NewChapterHandler 创建章节编辑处理器
func NewChapterHandler(sessions *editor.Manager) *ChapterHandler {
	return &ChapterHandler{sessions: sessions}
}

// session 打开请求对应的章节会话，失败时输出错误
func (h *ChapterHandler) session(c *gin.Context) (*editor.Session, bool) {
	cid, ok := chapterID(c)
	if !ok {
		return nil, false
	}
	s, err := h.sessions.Open(c.Request.Context(), dto.BindProjectID(c), cid)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return s, true
}

func (h *ChapterHandler) view(v editor.View) *dto.ChapterResponse {
	return dto.ToChapterResponse(v, h.sessions.Debounce().Milliseconds())
}

// GetChapter 获取章节与派生指标
// @Summary 获取章节
// @Tags Chapters
// @Produce json
// @Param pid path string true "项目 ID"
// @Param cid path int true "章节 ID"
// @Success 200 {object} dto.Response[dto.ChapterResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/projects/{pid}/chapters/{cid} [get]
func (h *ChapterHandler) GetChapter(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	dto.Success(c, h.view(s.View()))
}

// UpdateContent 更新章节内容，防抖后保存
// @Summary 更新章节内容
// @Tags Chapters
// @Accept json
// @Produce json
// @Param body body dto.TextRequest true "内容"
// @Success 202 {object} dto.Response[dto.ChapterResponse]
// @Router /v1/projects/{pid}/chapters/{cid}/content [put]
func (h *ChapterHandler) UpdateContent(c *gin.Context) {
	var req dto.TextRequest
	if !bindJSON(c, &req) {
		return
	}
	s, ok := h.session(c)
	if !ok {
		return
	}
	dto.Accepted(c, h.view(s.SetContent(*req.Text)))
}

// UpdateTitle 更新章节标题，防抖后保存
// @Router /v1/projects/{pid}/chapters/{cid}/title [put]
func (h *ChapterHandler) UpdateTitle(c *gin.Context) {
	var req dto.TextRequest
	if !bindJSON(c, &req) {
		return
	}
	s, ok := h.session(c)
	if !ok {
		return
	}
	dto.Accepted(c, h.view(s.SetTitle(*req.Text)))
}

// Flush 立即保存待保存字段
// @Router /v1/projects/{pid}/chapters/{cid}/flush [post]
func (h *ChapterHandler) Flush(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	if err := s.Flush(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	dto.Success(c, h.view(s.View()))
}

// CloseSession 保存并关闭会话
// @Router /v1/projects/{pid}/chapters/{cid}/session [delete]
func (h *ChapterHandler) CloseSession(c *gin.Context) {
	cid, ok := chapterID(c)
	if !ok {
		return
	}
	if err := h.sessions.Close(c.Request.Context(), dto.BindProjectID(c), cid); err != nil {
		respondError(c, err)
		return
	}
	dto.NoContent(c)
}

// AppendSegment AI 续写并追加到章节末尾
// @Summary 追加生成片段
// @Tags Chapters
// @Accept json
// @Produce json
// @Param body body dto.SegmentRequest true "目标字数"
// @Success 200 {object} dto.Response[dto.ChapterResponse]
// @Failure 502 {object} dto.ErrorResponse
// @Router /v1/projects/{pid}/chapters/{cid}/segments [post]
func (h *ChapterHandler) AppendSegment(c *gin.Context) {
	var req dto.SegmentRequest
	if !bindJSON(c, &req) {
		return
	}
	s, ok := h.session(c)
	if !ok {
		return
	}
	v, err := s.AppendGeneratedSegment(c.Request.Context(), req.TargetCharCount)
	if err != nil {
		respondError(c, err)
		return
	}
	dto.Success(c, h.view(v))
}

// ApplyEnhancements 应用增强项
// @Summary 应用增强
// @Tags Chapters
// @Accept json
// @Produce json
// @Param body body dto.EnhancementsRequest true "增强项"
// @Success 200 {object} dto.Response[dto.ChapterResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /v1/projects/{pid}/chapters/{cid}/enhancements [post]
func (h *ChapterHandler) ApplyEnhancements(c *gin.Context) {
	var req dto.EnhancementsRequest
	if !bindJSON(c, &req) {
		return
	}
	s, ok := h.session(c)
	if !ok {
		return
	}
	v, err := s.ApplyEnhancements(c.Request.Context(), req.EnhancementIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	dto.Success(c, h.view(v))
}
