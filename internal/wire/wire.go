//go:build wireinject
// +build wireinject

package wire

import (
	"context"

	"github.com/google/wire"

	"yt-ebook-api/internal/config"
	"yt-ebook-api/internal/interfaces/http/handler"
	"yt-ebook-api/internal/interfaces/http/router"
)

// StoreSet 项目存储提供者集合
var StoreSet = wire.NewSet(
	ProvideCollectionBackend,
	ProvideProjectStore,
)

// GatewaySet 内容网关提供者集合
var GatewaySet = wire.NewSet(
	ProvideEinoFactory,
	ProvideChains,
	ProvideGateway,
)

// PipelineSet 生成流水线提供者集合
var PipelineSet = wire.NewSet(
	ProvidePipeline,
	ProvideRunRegistry,
)

// RouterSet 路由器提供者集合
var RouterSet = wire.NewSet(
	ProvideLauncher,
	ProvideEditorManager,
	ProvideExporter,
	ProvideRateLimit,
	ProvideHealthHandler,
	ProvideProjectHandler,
	ProvideGenerationHandler,
	ProvideExportHandler,
	ProvideAssistantHandler,
	handler.NewChapterHandler,
	handler.NewVideoHandler,
	handler.NewCatalogHandler,
	wire.Struct(new(router.RouterHandlers), "*"),
	router.NewWithDeps,
)

// InitializeApp 初始化 API 网关
func InitializeApp(ctx context.Context, cfg *config.Config) (*App, func(), error) {
	wire.Build(
		ProvideRedisClient,
		StoreSet,
		GatewaySet,
		PipelineSet,
		RouterSet,
		wire.Struct(new(App), "*"),
	)
	return nil, nil, nil
}

// InitializeWorker 初始化 job-worker
func InitializeWorker(ctx context.Context, cfg *config.Config) (*Worker, func(), error) {
	wire.Build(
		ProvideRequiredRedisClient,
		ProvideSharedCollectionBackend,
		ProvideProjectStore,
		GatewaySet,
		PipelineSet,
		wire.Struct(new(Worker), "Pipeline", "Redis"),
	)
	return nil, nil, nil
}
