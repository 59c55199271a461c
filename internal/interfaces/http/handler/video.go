package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"yt-ebook-api/internal/application/gateway"
	"yt-ebook-api/internal/domain/entity"
	"yt-ebook-api/internal/interfaces/http/dto"
	apperrors "yt-ebook-api/pkg/errors"
)

// VideoHandler 视频搜索与解析处理器
type VideoHandler struct {
	gateway *gateway.Gateway
}

// NewVideoHandler 创建视频处理器
func NewVideoHandler(gw *gateway.Gateway) *VideoHandler {
	return &VideoHandler{gateway: gw}
}

// Search 搜索视频
// @Summary 搜索视频
// @Tags Videos
// @Produce json
// @Param q query string true "关键词"
// @Param max query int false "最大条数" default(10)
// @Success 200 {object} dto.Response[dto.VideoSearchResponse]
// @Failure 502 {object} dto.ErrorResponse
// @Router /v1/videos/search [get]
func (h *VideoHandler) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		respondError(c, apperrors.ErrInvalidParam.WithDetail("q is required"))
		return
	}
	limit := gateway.ClampSearchResults(dto.QueryInt(c, "max", gateway.DefaultSearchResults))

	videos, err := h.gateway.SearchVideos(c.Request.Context(), query, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	dto.Success(c, &dto.VideoSearchResponse{Query: query, Videos: videos})
}

// GetVideo 获取视频信息，路径参数可以是 ID 或 URL 编码后的链接
// @Summary 获取视频信息
// @Tags Videos
// @Produce json
// @Param vid path string true "视频 ID"
// @Success 200 {object} dto.Response[entity.VideoRef]
// @Router /v1/videos/{vid} [get]
func (h *VideoHandler) GetVideo(c *gin.Context) {
	id, err := entity.ParseVideoID(dto.BindVideoID(c))
	if err != nil {
		respondError(c, apperrors.Validation("invalid video id %q", dto.BindVideoID(c)))
		return
	}
	video, err := h.gateway.FetchVideoInfo(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	dto.Success(c, video)
}

// Resolve 把视频链接解析为 ID
// @Router /v1/videos/resolve [post]
func (h *VideoHandler) Resolve(c *gin.Context) {
	var req dto.ResolveVideoRequest
	if !bindJSON(c, &req) {
		return
	}
	id, err := entity.ParseVideoID(req.Input)
	if err != nil {
		respondError(c, apperrors.Validation("invalid video url %q", req.Input))
		return
	}
	ref := entity.VideoRef{ID: id}
	dto.Success(c, &dto.ResolveVideoResponse{ID: id, WatchURL: ref.WatchURL()})
}
