// Package handler 提供 HTTP 请求处理器
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"yt-ebook-api/internal/interfaces/http/dto"
	apperrors "yt-ebook-api/pkg/errors"
	"yt-ebook-api/pkg/logger"
)

// respondError 输出错误响应，5xx 记录日志
func respondError(c *gin.Context, err error) {
	appErr := apperrors.AsAppError(err)
	if appErr.HTTPStatus == 0 || appErr.HTTPStatus >= http.StatusInternalServerError {
		logger.Error(c.Request.Context(), "request failed", err,
			"method", c.Request.Method,
			"path", c.FullPath(),
		)
	}
	dto.Fail(c, err)
}

// bindJSON 绑定请求体，失败时直接输出 400
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		respondError(c, apperrors.ErrInvalidParam.WithDetail("invalid request body: "+err.Error()))
		return false
	}
	return true
}

// chapterID 解析章节 ID，失败时直接输出 400
func chapterID(c *gin.Context) (int, bool) {
	id, err := dto.BindChapterID(c)
	if err != nil {
		respondError(c, err)
		return 0, false
	}
	return id, true
}
