// Package youtube 基于 YouTube Data API v3 的视频元数据与搜索提供方
package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"yt-ebook-api/internal/config"
	"yt-ebook-api/internal/domain/entity"
	"yt-ebook-api/internal/infrastructure/provider/httpx"
	"yt-ebook-api/pkg/logger"
)

const providerName = "youtube"

const (
	defaultBaseURL = "https://www.googleapis.com/youtube/v3"
	defaultTimeout = 15 * time.Second
)

// ErrVideoNotFound API 返回空 items
var ErrVideoNotFound = errors.New("video not found")

// Client YouTube Data API 客户端
type Client struct {
	baseURL string
	keys    []string
	http    *http.Client
	limiter *rate.Limiter
	retry   httpx.RetryConfig
}

// Option 配置项
type Option func(*Client)

// WithHTTPClient 替换底层 http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithRetry 替换重试配置
func WithRetry(rc httpx.RetryConfig) Option {
	return func(c *Client) { c.retry = rc }
}

// New 创建客户端；未配置 API key 时返回 nil
func New(cfg config.YouTubeConfig, opts ...Option) *Client {
	keys := make([]string, 0, 2)
	for _, k := range []string{cfg.APIKey, cfg.FallbackAPIKey} {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return nil
	}

	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	limit := rate.Inf
	burst := 1
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
		burst = max(1, int(cfg.RequestsPerSecond))
	}

	c := &Client{
		baseURL: base,
		keys:    keys,
		http:    &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(limit, burst),
		retry:   httpx.DefaultRetryConfig,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Name() string { return providerName }

type thumbnail struct {
	URL string `json:"url"`
}

type snippet struct {
	Title        string               `json:"title"`
	Description  string               `json:"description"`
	ChannelTitle string               `json:"channelTitle"`
	PublishedAt  string               `json:"publishedAt"`
	Thumbnails   map[string]thumbnail `json:"thumbnails"`
}

type videosResp struct {
	Items []struct {
		ID             string  `json:"id"`
		Snippet        snippet `json:"snippet"`
		ContentDetails struct {
			Duration string `json:"duration"`
		} `json:"contentDetails"`
		Statistics struct {
			ViewCount string `json:"viewCount"`
			LikeCount string `json:"likeCount"`
		} `json:"statistics"`
	} `json:"items"`
}

type searchResp struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet snippet `json:"snippet"`
	} `json:"items"`
}

// FetchVideoInfo 调用 videos 接口
func (c *Client) FetchVideoInfo(ctx context.Context, videoID string) (*entity.VideoRef, error) {
	params := url.Values{
		"part": {"snippet,contentDetails,statistics"},
		"id":   {videoID},
	}
	var resp videosResp
	if err := c.get(ctx, "videos", params, &resp); err != nil {
		return nil, err
	}
	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrVideoNotFound, videoID)
	}

	item := resp.Items[0]
	return &entity.VideoRef{
		ID:          videoID,
		Title:       item.Snippet.Title,
		Channel:     item.Snippet.ChannelTitle,
		Description: item.Snippet.Description,
		PublishedAt: parseTime(item.Snippet.PublishedAt),
		Duration:    FormatDuration(item.ContentDetails.Duration),
		Thumbnail:   pickThumbnail(item.Snippet.Thumbnails, "maxres", "high", "medium", "default"),
		Views:       parseCount(item.Statistics.ViewCount),
		Likes:       parseCount(item.Statistics.LikeCount),
	}, nil
}

// SearchVideos 调用 search 接口；搜索结果不含时长
func (c *Client) SearchVideos(ctx context.Context, query string, maxResults int) ([]entity.VideoRef, error) {
	params := url.Values{
		"part":       {"snippet"},
		"q":          {query},
		"type":       {"video"},
		"maxResults": {strconv.Itoa(maxResults)},
	}
	var resp searchResp
	if err := c.get(ctx, "search", params, &resp); err != nil {
		return nil, err
	}

	out := make([]entity.VideoRef, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.ID.VideoID == "" {
			continue
		}
		out = append(out, entity.VideoRef{
			ID:          item.ID.VideoID,
			Title:       item.Snippet.Title,
			Channel:     item.Snippet.ChannelTitle,
			Description: item.Snippet.Description,
			PublishedAt: parseTime(item.Snippet.PublishedAt),
			Thumbnail:   pickThumbnail(item.Snippet.Thumbnails, "high", "medium", "default"),
			Duration:    "N/A",
		})
	}
	return out, nil
}

// get 依次尝试主 key 与备用 key
func (c *Client) get(ctx context.Context, resource string, params url.Values, out any) error {
	var lastErr error
	for i, key := range c.keys {
		err := c.getWithKey(ctx, resource, params, key, out)
		if err == nil {
			return nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		if i < len(c.keys)-1 {
			logger.Warn(ctx, "youtube api call failed, trying fallback key", "resource", resource, "error", err.Error())
		}
	}
	return lastErr
}

func (c *Client) getWithKey(ctx context.Context, resource string, params url.Values, key string, out any) error {
	q := url.Values{}
	for k, v := range params {
		q[k] = v
	}
	q.Set("key", key)
	endpoint := c.baseURL + "/" + resource + "?" + q.Encode()

	resp, err := httpx.RetryHTTP(ctx, c.retry, func() (*http.Response, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return c.http.Do(req)
	})
	if err != nil {
		return fmt.Errorf("youtube %s: %w", resource, err)
	}
	if err := httpx.CheckStatus(resp); err != nil {
		return fmt.Errorf("youtube %s: %w", resource, err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(io.LimitReader(resp.Body, 4<<20)).Decode(out); err != nil {
		return fmt.Errorf("youtube %s: decode response: %w", resource, err)
	}
	return nil
}

func pickThumbnail(thumbs map[string]thumbnail, order ...string) string {
	for _, k := range order {
		if t, ok := thumbs[k]; ok && t.URL != "" {
			return t.URL
		}
	}
	return ""
}

func parseTime(s string) *time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	return &t
}

func parseCount(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
