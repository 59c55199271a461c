// Package mock 提供确定性的内容提供方，作为每条网关链路的最后兜底。
// 所有输出都是输入的纯函数（时间戳除外），便于测试与离线演示。
package mock

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"strings"
	"time"

	"yt-ebook-api/internal/domain/entity"
)

const providerName = "mock"

// DefaultSegmentChars 未指定目标长度时的片段长度
const DefaultSegmentChars = 1000

// Provider 确定性 mock 提供方，实现全部内容能力接口
type Provider struct {
	now func() time.Time
}

// Option 配置项
type Option func(*Provider)

// WithClock 注入时钟
func WithClock(now func() time.Time) Option {
	return func(p *Provider) { p.now = now }
}

// New 创建 mock 提供方
func New(opts ...Option) *Provider {
	p := &Provider{now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) Name() string { return providerName }

// FetchVideoInfo 由视频 ID 派生元数据
func (p *Provider) FetchVideoInfo(_ context.Context, videoID string) (*entity.VideoRef, error) {
	if strings.TrimSpace(videoID) == "" {
		return nil, fmt.Errorf("video id is empty")
	}
	r := seeded(videoID)
	published := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(r.IntN(365*4)) * 24 * time.Hour)
	transcript := "Sample transcript content for the video..."
	return &entity.VideoRef{
		ID:          videoID,
		Title:       "Sample Video " + lastRunes(videoID, 4),
		Channel:     "Sample Channel",
		Description: "This is a sample video description for development.",
		Duration:    fmt.Sprintf("%d:%02d", 5+r.IntN(20), r.IntN(60)),
		Thumbnail:   "https://img.youtube.com/vi/" + videoID + "/maxresdefault.jpg",
		PublishedAt: &published,
		Views:       r.Int64N(1_000_000),
		Likes:       r.Int64N(10_000),
		Transcript:  &transcript,
	}, nil
}

// SearchVideos 生成 maxResults 条结果，ID 由 (query, n) 派生
func (p *Provider) SearchVideos(_ context.Context, query string, maxResults int) ([]entity.VideoRef, error) {
	out := make([]entity.VideoRef, 0, maxResults)
	for i := 1; i <= maxResults; i++ {
		key := fmt.Sprintf("%s#%d", query, i)
		id := derivedVideoID(key)
		r := seeded(key)
		out = append(out, entity.VideoRef{
			ID:          id,
			Title:       fmt.Sprintf("%s - Sample Video %d", query, i),
			Channel:     fmt.Sprintf("Sample Channel %d", i),
			Description: fmt.Sprintf("Sample description for %s video %d", query, i),
			Duration:    fmt.Sprintf("%d:%02d", 5+r.IntN(20), r.IntN(60)),
			Thumbnail:   "https://img.youtube.com/vi/" + id + "/maxresdefault.jpg",
		})
	}
	return out, nil
}

// seeded 以 FNV-64a(key) 为种子的 PCG 生成器
func seeded(key string) *rand.Rand {
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	sum := h.Sum64()
	return rand.New(rand.NewPCG(sum, sum^0x9e3779b97f4a7c15))
}

const idAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

// derivedVideoID 生成 11 位、符合视频 ID 字符集的稳定 ID
func derivedVideoID(key string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	v := h.Sum64()
	id := make([]byte, 11)
	for i := range id {
		id[i] = idAlphabet[v&63]
		v >>= 6
	}
	return string(id)
}

func lastRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}
