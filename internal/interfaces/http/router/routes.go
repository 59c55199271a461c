package router

import (
	"github.com/gin-gonic/gin"
)

// RegisterV1Routes 注册 v1 版本路由
func RegisterV1Routes(v1 *gin.RouterGroup, h *RouterHandlers) {
	// 项目管理
	projects := v1.Group("/projects")
	{
		projects.GET("", h.Project.ListProjects)
		projects.POST("", h.Project.CreateProject)
		projects.GET("/:pid", h.Project.GetProject)
		projects.PATCH("/:pid", h.Project.UpdateProject)
		projects.DELETE("/:pid", h.Project.DeleteProject)

		// 生成
		projects.POST("/:pid/generate", h.Generation.Generate)
		projects.GET("/:pid/generation", h.Generation.Status)
		projects.GET("/:pid/generation/ws", h.Generation.StreamWS)
		projects.GET("/:pid/generation/stream", h.Generation.StreamSSE)

		// 章节编辑
		chapters := projects.Group("/:pid/chapters/:cid")
		{
			chapters.GET("", h.Chapter.GetChapter)
			chapters.PUT("/content", h.Chapter.UpdateContent)
			chapters.PUT("/title", h.Chapter.UpdateTitle)
			chapters.POST("/flush", h.Chapter.Flush)
			chapters.DELETE("/session", h.Chapter.CloseSession)
			chapters.POST("/segments", h.Chapter.AppendSegment)
			chapters.POST("/enhancements", h.Chapter.ApplyEnhancements)
		}

		// 导出
		projects.GET("/:pid/export", h.Export.Export)
	}

	v1.GET("/stats", h.Project.Stats)
	v1.GET("/export/formats", h.Export.Formats)

	// 视频
	videos := v1.Group("/videos")
	{
		videos.GET("/search", h.Video.Search)
		videos.POST("/resolve", h.Video.Resolve)
		videos.GET("/:vid", h.Video.GetVideo)
	}

	// 目录
	v1.GET("/templates", h.Catalog.Templates)
	v1.GET("/enhancements", h.Catalog.Enhancements)
	v1.GET("/stages", h.Catalog.Stages)

	// AI 助手
	v1.POST("/assistant", h.Assistant.Chat)
}
