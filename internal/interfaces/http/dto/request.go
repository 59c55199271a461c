package dto

import (
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "yt-ebook-api/pkg/errors"
)

// BindProjectID 从 URI 绑定项目 ID
func BindProjectID(c *gin.Context) string {
	return c.Param("pid")
}

// BindChapterID 从 URI 绑定章节 ID，必须是正整数
func BindChapterID(c *gin.Context) (int, error) {
	raw := c.Param("cid")
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, apperrors.ErrInvalidParam.WithDetail("chapter id must be a positive integer: " + raw)
	}
	return id, nil
}

// BindVideoID 从 URI 绑定视频 ID
func BindVideoID(c *gin.Context) string {
	return c.Param("vid")
}

// QueryInt 解析整数查询参数，缺失或非法时返回默认值
func QueryInt(c *gin.Context, key string, defaultVal int) int {
	return parseIntWithDefault(c.Query(key), defaultVal)
}

// QueryBool 解析布尔查询参数
func QueryBool(c *gin.Context, key string) bool {
	v, err := strconv.ParseBool(c.Query(key))
	return err == nil && v
}

func parseIntWithDefault(s string, defaultVal int) int {
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}
