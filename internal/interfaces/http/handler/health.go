package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"yt-ebook-api/internal/domain/repository"
	"yt-ebook-api/internal/infrastructure/persistence/redis"
)

// HealthHandler 健康检查处理器
type HealthHandler struct {
	backend repository.CollectionBackend
	redis   *redis.Client
	version string
}

// NewHealthHandler 创建健康检查处理器；redisClient 可为 nil
func NewHealthHandler(backend repository.CollectionBackend, redisClient *redis.Client, version string) *HealthHandler {
	return &HealthHandler{
		backend: backend,
		redis:   redisClient,
		version: version,
	}
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

type readinessCheck struct {
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	LatencyMs int64  `json:"latency_ms,omitempty"`
}

type readinessResponse struct {
	Status string                     `json:"status"`
	Checks map[string]*readinessCheck `json:"checks,omitempty"`
}

// Health 健康检查接口
// @Summary 健康检查
// @Tags System
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: h.version,
	})
}

// Ready 就绪检查接口：存储后端必需，Redis 可选
// @Summary 就绪检查
// @Tags System
// @Produce json
// @Success 200 {object} readinessResponse
// @Failure 503 {object} readinessResponse
// @Router /ready [get]
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]*readinessCheck{
		"redis": {Status: "disabled"},
	}
	ready := true

	store := &readinessCheck{Status: "missing", Error: "store backend not configured"}
	if h.backend != nil {
		store = probe(ctx, h.backend.Ping, "error")
	}
	checks["store:"+backendName(h.backend)] = store
	if store.Status != "ok" {
		ready = false
	}

	// Redis 只用于缓存、限流与任务流，不可用时降级
	if h.redis != nil {
		checks["redis"] = probe(ctx, h.redis.Ping, "degraded")
	}

	resp := readinessResponse{Status: "ok", Checks: checks}
	if !ready {
		resp.Status = "not_ready"
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Live 存活检查接口
// @Summary 存活检查
// @Tags System
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /live [get]
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

func probe(ctx context.Context, ping func(context.Context) error, failStatus string) *readinessCheck {
	start := time.Now()
	err := ping(ctx)
	check := &readinessCheck{Status: "ok", LatencyMs: time.Since(start).Milliseconds()}
	if err != nil {
		check.Status = failStatus
		check.Error = err.Error()
	}
	return check
}

func backendName(b repository.CollectionBackend) string {
	if b == nil {
		return "none"
	}
	return b.Name()
}
