// Package gateway 内容提供方网关：每个操作持有一条有序的提供方链路，
// 逐个尝试并返回第一个成功结果，全部失败时返回 ProviderExhausted。
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"yt-ebook-api/internal/domain/entity"
	"yt-ebook-api/internal/domain/service"
	apperrors "yt-ebook-api/pkg/errors"
	"yt-ebook-api/pkg/logger"
	"yt-ebook-api/pkg/metrics"
	"yt-ebook-api/pkg/tracer"
)

// 网关操作名（日志与指标标签）
const (
	OpFetchVideoInfo      = "fetch_video_info"
	OpSearchVideos        = "search_videos"
	OpGenerateBookContent = "generate_book_content"
	OpEnhanceChapter      = "enhance_chapter"
	OpGenerateSegment     = "generate_segment"
	OpGetTranscript       = "get_transcript"
	OpAssist              = "assist"
)

// 搜索结果数量
const (
	DefaultSearchResults = 10
	MaxSearchResults     = 50
)

const videoInfoKeyPrefix = "video:info:"

// VideoCache 视频元数据读穿缓存
type VideoCache interface {
	GetOrLoadSafe(ctx context.Context, key string, ttl time.Duration, loader func(ctx context.Context) (any, error)) ([]byte, error)
}

// Chains 各操作的提供方链路，顺序即尝试顺序
type Chains struct {
	VideoInfo  []service.VideoInfoProvider
	Search     []service.VideoSearchProvider
	Book       []service.BookContentProvider
	Enhance    []service.ChapterEnhancer
	Segment    []service.SegmentGenerator
	Assistant  []service.AssistantResponder
	Transcript service.TranscriptSource
}

// Gateway 内容提供方网关
type Gateway struct {
	chains   Chains
	cache    VideoCache
	cacheTTL time.Duration
}

// Option 配置项
type Option func(*Gateway)

// WithVideoCache 在视频元数据链路前加一层缓存
func WithVideoCache(cache VideoCache, ttl time.Duration) Option {
	return func(g *Gateway) {
		g.cache = cache
		g.cacheTTL = ttl
	}
}

// New 创建网关
func New(chains Chains, opts ...Option) *Gateway {
	g := &Gateway{chains: chains}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// ProviderNames 各操作链路中的提供方名称，用于启动日志与健康检查
func (g *Gateway) ProviderNames() map[string][]string {
	out := map[string][]string{
		OpFetchVideoInfo:      names(g.chains.VideoInfo),
		OpSearchVideos:        names(g.chains.Search),
		OpGenerateBookContent: names(g.chains.Book),
		OpEnhanceChapter:      names(g.chains.Enhance),
		OpGenerateSegment:     names(g.chains.Segment),
		OpAssist:              names(g.chains.Assistant),
	}
	if g.chains.Transcript != nil {
		out[OpGetTranscript] = []string{g.chains.Transcript.Name()}
	}
	return out
}

// FetchVideoInfo 获取视频元数据
func (g *Gateway) FetchVideoInfo(ctx context.Context, videoID string) (*entity.VideoRef, error) {
	load := func(ctx context.Context) (*entity.VideoRef, error) {
		return attempt(ctx, OpFetchVideoInfo, g.chains.VideoInfo, func(ctx context.Context, p service.VideoInfoProvider) (*entity.VideoRef, error) {
			return p.FetchVideoInfo(ctx, videoID)
		})
	}
	if g.cache == nil {
		return load(ctx)
	}

	raw, err := g.cache.GetOrLoadSafe(ctx, videoInfoKeyPrefix+videoID, g.cacheTTL, func(ctx context.Context) (any, error) {
		return load(ctx)
	})
	if err != nil {
		return nil, err
	}
	var v entity.VideoRef
	if err := json.Unmarshal(raw, &v); err != nil {
		logger.Warn(ctx, "cached video info undecodable, reloading", "video_id", videoID, "error", err.Error())
		return load(ctx)
	}
	return &v, nil
}

// SearchVideos 搜索视频；maxResults 限制在 1..50，非正数取默认 10
func (g *Gateway) SearchVideos(ctx context.Context, query string, maxResults int) ([]entity.VideoRef, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperrors.Validation("search query is required")
	}
	maxResults = ClampSearchResults(maxResults)
	return attempt(ctx, OpSearchVideos, g.chains.Search, func(ctx context.Context, p service.VideoSearchProvider) ([]entity.VideoRef, error) {
		return p.SearchVideos(ctx, query, maxResults)
	})
}

// ClampSearchResults 规范化搜索数量
func ClampSearchResults(n int) int {
	switch {
	case n <= 0:
		return DefaultSearchResults
	case n > MaxSearchResults:
		return MaxSearchResults
	default:
		return n
	}
}

// GenerateBookContent 生成整书，返回结果的章节与总字数已规范化
func (g *Gateway) GenerateBookContent(ctx context.Context, videos []entity.VideoRef, settings entity.Settings) (*entity.BookContent, error) {
	book, err := attempt(ctx, OpGenerateBookContent, g.chains.Book, func(ctx context.Context, p service.BookContentProvider) (*entity.BookContent, error) {
		return p.GenerateBookContent(ctx, videos, settings)
	})
	if err != nil {
		return nil, err
	}
	book.Normalize()
	return book, nil
}

// EnhanceChapter 对章节应用增强项；返回章节的字数按内容重算
func (g *Gateway) EnhanceChapter(ctx context.Context, chapter entity.Chapter, enhancementIDs []string) (*entity.Chapter, error) {
	out, err := attempt(ctx, OpEnhanceChapter, g.chains.Enhance, func(ctx context.Context, p service.ChapterEnhancer) (*entity.Chapter, error) {
		return p.EnhanceChapter(ctx, chapter, enhancementIDs)
	})
	if err != nil {
		return nil, err
	}
	out.SetContent(out.Content)
	return out, nil
}

// GenerateSegment 生成追加片段；字数总是按内容重算
func (g *Gateway) GenerateSegment(ctx context.Context, chapterTitle, existingContent string, targetChars int) (*entity.Segment, error) {
	seg, err := attempt(ctx, OpGenerateSegment, g.chains.Segment, func(ctx context.Context, p service.SegmentGenerator) (*entity.Segment, error) {
		return p.GenerateSegment(ctx, chapterTitle, existingContent, targetChars)
	})
	if err != nil {
		return nil, err
	}
	seg.CharCount = entity.CharCount(seg.Content)
	if seg.GeneratedAt.IsZero() {
		seg.GeneratedAt = time.Now().UTC()
	}
	return seg, nil
}

// GetTranscript 单次尝试；ok=false 表示无字幕或未配置字幕源
func (g *Gateway) GetTranscript(ctx context.Context, videoID string) (string, bool, error) {
	src := g.chains.Transcript
	if src == nil {
		return "", false, nil
	}
	ctx, span := tracer.Start(ctx, "gateway."+OpGetTranscript)
	text, ok, err := src.GetTranscript(ctx, videoID)
	tracer.End(span, err)

	status := "success"
	switch {
	case err != nil:
		status = "error"
		logger.Warn(ctx, "transcript fetch failed", "provider", src.Name(), "video_id", videoID, "error", err.Error())
	case !ok:
		status = "absent"
	}
	metrics.ProviderAttemptsTotal.WithLabelValues(OpGetTranscript, src.Name(), status).Inc()
	return text, ok, err
}

// Assist 编辑助手对话
func (g *Gateway) Assist(ctx context.Context, message string, actx entity.AssistantContext) (*entity.AssistantReply, error) {
	if strings.TrimSpace(message) == "" {
		return nil, apperrors.Validation("message is required")
	}
	reply, err := attempt(ctx, OpAssist, g.chains.Assistant, func(ctx context.Context, p service.AssistantResponder) (*entity.AssistantReply, error) {
		return p.Assist(ctx, message, actx)
	})
	if err != nil {
		return nil, err
	}
	if reply.Timestamp.IsZero() {
		reply.Timestamp = time.Now().UTC()
	}
	return reply, nil
}

// attempt 依次调用链路中的提供方，记录每次失败并返回第一个成功结果
func attempt[P service.Named, T any](ctx context.Context, op string, chain []P, call func(context.Context, P) (T, error)) (T, error) {
	var zero T
	ctx, span := tracer.Start(ctx, "gateway."+op, trace.WithAttributes(attribute.Int("gateway.chain_length", len(chain))))
	defer span.End()

	var lastErr error
	lastName := ""
	for _, p := range chain {
		name := p.Name()
		res, err := call(ctx, p)
		if err == nil {
			metrics.ProviderAttemptsTotal.WithLabelValues(op, name, "success").Inc()
			span.SetAttributes(attribute.String("gateway.provider", name))
			return res, nil
		}

		metrics.ProviderAttemptsTotal.WithLabelValues(op, name, "error").Inc()
		logger.Warn(ctx, "provider attempt failed", "operation", op, "provider", name, "error", err.Error())
		lastErr, lastName = err, name

		if ctxErr := ctx.Err(); ctxErr != nil {
			span.RecordError(ctxErr)
			return zero, fmt.Errorf("%s cancelled: %w", op, ctxErr)
		}
	}

	metrics.ProviderExhaustedTotal.WithLabelValues(op).Inc()
	if lastErr == nil {
		appErr := apperrors.ErrProviderExhausted.WithDetail(op + ": no providers configured")
		span.RecordError(appErr)
		return zero, appErr
	}
	appErr := apperrors.ErrProviderExhausted.
		WithDetail(fmt.Sprintf("%s: last provider %s failed: %v", op, lastName, lastErr)).
		WithError(lastErr)
	span.RecordError(appErr)
	return zero, appErr
}

func names[P service.Named](chain []P) []string {
	out := make([]string, 0, len(chain))
	for _, p := range chain {
		out = append(out, p.Name())
	}
	return out
}
