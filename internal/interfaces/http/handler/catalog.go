package handler

import (
	"github.com/gin-gonic/gin"

	"yt-ebook-api/internal/application/pipeline"
	"yt-ebook-api/internal/domain/entity"
	"yt-ebook-api/internal/interfaces/http/dto"
)

// CatalogHandler 只读目录处理器
type CatalogHandler struct{}

// NewCatalogHandler 创建目录处理器
func NewCatalogHandler() *CatalogHandler {
	return &CatalogHandler{}
}

// Templates 书籍模板目录
// @Router /v1/templates [get]
func (h *CatalogHandler) Templates(c *gin.Context) {
	dto.Success(c, &dto.CatalogResponse[entity.Template]{Items: entity.Templates()})
}

// Enhancements 增强项目录
// @Router /v1/enhancements [get]
func (h *CatalogHandler) Enhancements(c *gin.Context) {
	dto.Success(c, &dto.CatalogResponse[entity.Enhancement]{Items: entity.Enhancements()})
}

// Stages 流水线阶段目录
// @Router /v1/stages [get]
func (h *CatalogHandler) Stages(c *gin.Context) {
	dto.Success(c, &dto.StagesResponse{Items: pipeline.StageCatalog()})
}
