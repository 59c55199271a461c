// Package wire 提供依赖注入配置
package wire

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	"yt-ebook-api/internal/application/editor"
	"yt-ebook-api/internal/application/export"
	"yt-ebook-api/internal/application/gateway"
	"yt-ebook-api/internal/application/pipeline"
	"yt-ebook-api/internal/config"
	"yt-ebook-api/internal/domain/repository"
	"yt-ebook-api/internal/infrastructure/llm"
	"yt-ebook-api/internal/infrastructure/messaging"
	"yt-ebook-api/internal/infrastructure/persistence/file"
	"yt-ebook-api/internal/infrastructure/persistence/postgres"
	"yt-ebook-api/internal/infrastructure/persistence/redis"
	"yt-ebook-api/internal/infrastructure/persistence/sqlite"
	"yt-ebook-api/internal/infrastructure/persistence/store"
	"yt-ebook-api/internal/infrastructure/provider/generative"
	"yt-ebook-api/internal/infrastructure/provider/managed"
	"yt-ebook-api/internal/infrastructure/provider/mock"
	"yt-ebook-api/internal/infrastructure/provider/transcript"
	"yt-ebook-api/internal/infrastructure/provider/youtube"
	"yt-ebook-api/internal/interfaces/http/handler"
	"yt-ebook-api/internal/interfaces/http/middleware"
	"yt-ebook-api/internal/interfaces/http/router"
	"yt-ebook-api/pkg/logger"
)

// App API 网关运行所需的顶层对象
type App struct {
	Router   *router.Router
	Sessions *editor.Manager
	Launcher pipeline.Launcher
}

// Worker job-worker 运行所需的顶层对象
type Worker struct {
	Pipeline *pipeline.Pipeline
	Redis    *redis.Client
}

// ProvideRedisClient 提供 Redis 客户端；未启用时返回 nil
func ProvideRedisClient(ctx context.Context, cfg *config.Config) (*redis.Client, func(), error) {
	if !cfg.Cache.Redis.Enabled {
		logger.Info(ctx, "redis disabled, cache and shared rate limit off")
		return nil, func() {}, nil
	}
	client, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

// ProvideRequiredRedisClient job-worker 必须连接 Redis
func ProvideRequiredRedisClient(ctx context.Context, cfg *config.Config) (*redis.Client, func(), error) {
	client, cleanup, err := ProvideRedisClient(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	if client == nil {
		return nil, nil, fmt.Errorf("job-worker requires cache.redis.enabled=true")
	}
	return client, cleanup, nil
}

// ProvideCollectionBackend 按 store.backend 选择项目集合的持久化后端
func ProvideCollectionBackend(ctx context.Context, cfg *config.Config, redisClient *redis.Client) (repository.CollectionBackend, func(), error) {
	noop := func() {}
	switch cfg.Store.Backend {
	case "", config.StoreBackendFile:
		b, err := file.NewBackend(cfg.Store.File.Path)
		if err != nil {
			return nil, nil, err
		}
		return b, noop, nil

	case config.StoreBackendRedis:
		if redisClient == nil {
			return nil, nil, fmt.Errorf("store backend %q requires cache.redis.enabled=true", cfg.Store.Backend)
		}
		return redis.NewCollectionBackend(redisClient, cfg.Store.Redis.KeyPrefix, cfg.Store.Collection), noop, nil

	case config.StoreBackendPostgres:
		client, err := postgres.NewClient(&cfg.Store.Postgres)
		if err != nil {
			return nil, nil, err
		}
		b, err := postgres.NewCollectionBackend(ctx, client, cfg.Store.Postgres.Table, cfg.Store.Collection)
		if err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		return b, func() { _ = client.Close() }, nil

	case config.StoreBackendSQLite:
		b, err := sqlite.Open(cfg.Store.SQLite.Path, cfg.Store.Collection)
		if err != nil {
			return nil, nil, err
		}
		return b, func() { _ = b.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// ProvideSharedCollectionBackend job-worker 与 api-gateway 共享的后端，必须支持跨进程原子读改写
func ProvideSharedCollectionBackend(ctx context.Context, cfg *config.Config, redisClient *redis.Client) (repository.CollectionBackend, func(), error) {
	backend, cleanup, err := ProvideCollectionBackend(ctx, cfg, redisClient)
	if err != nil {
		return nil, nil, err
	}
	if _, ok := backend.(repository.AtomicCollectionBackend); !ok {
		cleanup()
		return nil, nil, fmt.Errorf("store backend %q cannot be shared with job-worker, use redis, postgres or sqlite", backend.Name())
	}
	return backend, cleanup, nil
}

// ProvideProjectStore 提供项目存储
func ProvideProjectStore(backend repository.CollectionBackend) *store.ProjectStore {
	return store.New(backend)
}

// ProvideChains 按凭证组装各操作的提供方链路，mock 始终兜底
func ProvideChains(ctx context.Context, cfg *config.Config, factory *llm.EinoFactory) gateway.Chains {
	m := mock.New()
	chains := gateway.Chains{}

	if !cfg.Providers.ForceMock {
		if cfg.Providers.Managed.BaseURL != "" {
			c := managed.New(cfg.Providers.Managed)
			chains.VideoInfo = append(chains.VideoInfo, c)
			chains.Book = append(chains.Book, c)
			chains.Enhance = append(chains.Enhance, c)
			chains.Segment = append(chains.Segment, c)
			chains.Assistant = append(chains.Assistant, c)
		}
		if cfg.Providers.YouTube.APIKey != "" || cfg.Providers.YouTube.FallbackAPIKey != "" {
			c := youtube.New(cfg.Providers.YouTube)
			chains.VideoInfo = append(chains.VideoInfo, c)
			chains.Search = append(chains.Search, c)
		}
		if factory.Configured() {
			g := generative.New(factory)
			chains.Book = append(chains.Book, g)
			chains.Enhance = append(chains.Enhance, g)
			chains.Segment = append(chains.Segment, g)
			chains.Assistant = append(chains.Assistant, g)
		}
		if cfg.Providers.YouTube.TranscriptURL != "" {
			chains.Transcript = transcript.New(cfg.Providers.YouTube)
		}
	}

	chains.VideoInfo = append(chains.VideoInfo, m)
	chains.Search = append(chains.Search, m)
	chains.Book = append(chains.Book, m)
	chains.Enhance = append(chains.Enhance, m)
	chains.Segment = append(chains.Segment, m)
	chains.Assistant = append(chains.Assistant, m)

	logger.Info(ctx, "provider chains ready",
		"video_info", providerNames(chains.VideoInfo),
		"search", providerNames(chains.Search),
		"book", providerNames(chains.Book),
		"transcript", chains.Transcript != nil,
	)
	return chains
}

func providerNames[P interface{ Name() string }](chain []P) []string {
	names := make([]string, 0, len(chain))
	for _, p := range chain {
		names = append(names, p.Name())
	}
	return names
}

// ProvideGateway 提供内容网关；有 Redis 时视频元数据走读穿缓存
func ProvideGateway(cfg *config.Config, chains gateway.Chains, redisClient *redis.Client) *gateway.Gateway {
	if redisClient == nil {
		return gateway.New(chains)
	}
	return gateway.New(chains, gateway.WithVideoCache(redis.NewCache(redisClient, "video"), cfg.Cache.VideoTTL))
}

// ProvidePipeline 提供生成流水线
func ProvidePipeline(cfg *config.Config, projects *store.ProjectStore, gw *gateway.Gateway) *pipeline.Pipeline {
	return pipeline.New(projects, gw, pipeline.WithStageDelay(cfg.Pipeline.StageDelay))
}

// ProvideRunRegistry 提供运行登记表
func ProvideRunRegistry(p *pipeline.Pipeline) *pipeline.Registry {
	return p.Registry()
}

// ProvideLauncher 异步模式且有 Redis 时投递到消息流，否则在本进程执行
func ProvideLauncher(ctx context.Context, cfg *config.Config, p *pipeline.Pipeline, projects *store.ProjectStore, redisClient *redis.Client) pipeline.Launcher {
	if cfg.Pipeline.Async && redisClient != nil {
		logger.Info(ctx, "generation runs dispatched to job-worker", "stream", string(messaging.StreamBookGen))
		return pipeline.NewStreamLauncher(projects, ProvideMessagingProducer(cfg, redisClient))
	}
	if cfg.Pipeline.Async {
		logger.Warn(ctx, "pipeline.async requires redis, running generation in-process")
	}
	return pipeline.NewLocalLauncher(p, cfg.Pipeline.RunTimeout)
}

// ProvideMessagingProducer 提供消息生产者
func ProvideMessagingProducer(cfg *config.Config, redisClient *redis.Client) *messaging.Producer {
	maxLen := cfg.Messaging.RedisStream.MaxLen
	if maxLen <= 0 {
		maxLen = 100000
	}
	return messaging.NewProducer(redisClient.Redis(), int64(maxLen))
}

// ProvideEditorManager 提供章节编辑会话管理器
func ProvideEditorManager(cfg *config.Config, projects *store.ProjectStore, gw *gateway.Gateway) *editor.Manager {
	return editor.NewManager(projects, gw, cfg.Editor.Debounce)
}

// ProvideExporter 提供导出器
func ProvideExporter() *export.Exporter {
	return export.New()
}

// ProvideEinoFactory 提供 LLM 工厂
func ProvideEinoFactory(cfg *config.Config) *llm.EinoFactory {
	return llm.NewEinoFactory(cfg.LLM)
}

// ProvideHealthHandler 提供健康检查处理器
func ProvideHealthHandler(cfg *config.Config, backend repository.CollectionBackend, redisClient *redis.Client) *handler.HealthHandler {
	return handler.NewHealthHandler(backend, redisClient, cfg.App.Version)
}

// ProvideGenerationHandler 提供生成处理器，WebSocket 握手沿用 CORS 白名单
func ProvideGenerationHandler(cfg *config.Config, projects *store.ProjectStore, launcher pipeline.Launcher, runs *pipeline.Registry) *handler.GenerationHandler {
	return handler.NewGenerationHandler(projects, launcher, runs, cfg.Security.CORS.AllowedOrigins)
}

// ProvideProjectHandler 提供项目处理器
func ProvideProjectHandler(projects *store.ProjectStore, runs *pipeline.Registry, sessions *editor.Manager) *handler.ProjectHandler {
	return handler.NewProjectHandler(projects, runs, sessions)
}

// ProvideExportHandler 提供导出处理器
func ProvideExportHandler(projects *store.ProjectStore, sessions *editor.Manager, exporter *export.Exporter) *handler.ExportHandler {
	return handler.NewExportHandler(projects, sessions, exporter)
}

// ProvideAssistantHandler 提供写作助手处理器
func ProvideAssistantHandler(projects *store.ProjectStore, gw *gateway.Gateway) *handler.AssistantHandler {
	return handler.NewAssistantHandler(projects, gw)
}

// ProvideRateLimit 提供限流中间件；无 Redis 时退化为进程内令牌桶
func ProvideRateLimit(cfg *config.Config, redisClient *redis.Client) gin.HandlerFunc {
	return middleware.NewRateLimitMiddleware(middleware.RateLimitConfig{
		Enabled:           cfg.Security.RateLimit.Enabled,
		RequestsPerSecond: cfg.Security.RateLimit.RequestsPerSecond,
	}, redisClient)
}

