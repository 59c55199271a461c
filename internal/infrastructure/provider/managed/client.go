// Package managed 调用托管边缘函数（POST <base>/functions/v1/<name>）的内容提供方
package managed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"yt-ebook-api/internal/config"
	"yt-ebook-api/internal/domain/entity"
	"yt-ebook-api/internal/infrastructure/provider/httpx"
)

const providerName = "managed"

// 托管函数名称
const (
	FunctionVideoInfo      = "video-info"
	FunctionGenerateBook   = "generate-book-content"
	FunctionEnhanceChapter = "enhance-chapter"
	FunctionGenerateSeg    = "generate-segment"
	FunctionAIChat         = "ai-chat"
)

const defaultTimeout = 60 * time.Second

// maxResponseBytes 函数响应体上限
const maxResponseBytes = 8 << 20

// Client 托管函数客户端
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
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

// New 创建客户端；未配置 base_url 时返回 nil，调用方据此跳过该提供方
func New(cfg config.ManagedFunctionConfig, opts ...Option) *Client {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	c := &Client{
		baseURL: base,
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: timeout},
		retry:   httpx.DefaultRetryConfig,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Name() string { return providerName }

// invoke 调用函数并把响应解码到 out；非 2xx 或 {"error": ...} 视为失败
func (c *Client) invoke(ctx context.Context, function string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", function, err)
	}
	endpoint := c.baseURL + "/functions/v1/" + function

	resp, err := httpx.RetryHTTP(ctx, c.retry, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
			req.Header.Set("apikey", c.apiKey)
		}
		return c.http.Do(req)
	})
	if err != nil {
		return fmt.Errorf("function %s: %w", function, err)
	}
	if err := httpx.CheckStatus(resp); err != nil {
		return fmt.Errorf("function %s: %w", function, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("function %s: read response: %w", function, err)
	}
	if msg := functionError(raw); msg != "" {
		return fmt.Errorf("function %s: %s", function, msg)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("function %s: decode response: %w", function, err)
	}
	return nil
}

// functionError 提取 {"error": "..."} 或 {"error": {"message": "..."}}
func functionError(raw []byte) string {
	var env struct {
		Error json.RawMessage `json:"error"`
	}
	if json.Unmarshal(raw, &env) != nil || len(env.Error) == 0 || string(env.Error) == "null" {
		return ""
	}
	var s string
	if json.Unmarshal(env.Error, &s) == nil {
		if s == "" {
			return "unknown error"
		}
		return s
	}
	var obj struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(env.Error, &obj) == nil && obj.Message != "" {
		return obj.Message
	}
	return string(env.Error)
}

// FetchVideoInfo 调用 video-info
func (c *Client) FetchVideoInfo(ctx context.Context, videoID string) (*entity.VideoRef, error) {
	var v entity.VideoRef
	if err := c.invoke(ctx, FunctionVideoInfo, map[string]any{"videoId": videoID}, &v); err != nil {
		return nil, err
	}
	if v.ID == "" {
		v.ID = videoID
	}
	return &v, nil
}

// GenerateBookContent 调用 generate-book-content
func (c *Client) GenerateBookContent(ctx context.Context, videos []entity.VideoRef, settings entity.Settings) (*entity.BookContent, error) {
	var book entity.BookContent
	body := map[string]any{"videos": videos, "settings": settings}
	if err := c.invoke(ctx, FunctionGenerateBook, body, &book); err != nil {
		return nil, err
	}
	if len(book.Chapters) == 0 {
		return nil, fmt.Errorf("function %s: no chapters returned", FunctionGenerateBook)
	}
	if book.Metadata.Provider == "" {
		book.Metadata.Provider = providerName
	}
	return &book, nil
}

// EnhanceChapter 调用 enhance-chapter
func (c *Client) EnhanceChapter(ctx context.Context, chapter entity.Chapter, enhancementIDs []string) (*entity.Chapter, error) {
	var out entity.Chapter
	body := map[string]any{"chapter": chapter, "enhancements": enhancementIDs}
	if err := c.invoke(ctx, FunctionEnhanceChapter, body, &out); err != nil {
		return nil, err
	}
	if out.ID == 0 {
		out.ID = chapter.ID
	}
	if out.Title == "" {
		out.Title = chapter.Title
	}
	return &out, nil
}

// GenerateSegment 调用 generate-segment
func (c *Client) GenerateSegment(ctx context.Context, chapterTitle, existingContent string, targetChars int) (*entity.Segment, error) {
	var seg entity.Segment
	body := map[string]any{"chapterTitle": chapterTitle, "existingContent": existingContent, "wordCount": targetChars}
	if err := c.invoke(ctx, FunctionGenerateSeg, body, &seg); err != nil {
		return nil, err
	}
	if seg.Content == "" {
		return nil, fmt.Errorf("function %s: empty segment", FunctionGenerateSeg)
	}
	return &seg, nil
}

// Assist 调用 ai-chat
func (c *Client) Assist(ctx context.Context, message string, actx entity.AssistantContext) (*entity.AssistantReply, error) {
	var reply entity.AssistantReply
	body := map[string]any{"message": message, "context": actx}
	if err := c.invoke(ctx, FunctionAIChat, body, &reply); err != nil {
		return nil, err
	}
	if reply.Response == "" {
		return nil, fmt.Errorf("function %s: empty response", FunctionAIChat)
	}
	reply.Provider = providerName
	return &reply, nil
}
