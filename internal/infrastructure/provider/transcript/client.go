// Package transcript 从字幕服务（GET <url>/<videoID>）读取视频字幕
package transcript

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"yt-ebook-api/internal/config"
	"yt-ebook-api/internal/infrastructure/provider/httpx"
)

const providerName = "transcript"

const defaultTimeout = 15 * time.Second

// Client 字幕服务客户端，单次尝试不重试
type Client struct {
	baseURL string
	http    *http.Client
}

// New 未配置 transcript_url 时返回 nil
func New(cfg config.YouTubeConfig) *Client {
	base := strings.TrimRight(strings.TrimSpace(cfg.TranscriptURL), "/")
	if base == "" {
		return nil
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{baseURL: base, http: &http.Client{Timeout: timeout}}
}

func (c *Client) Name() string { return providerName }

// GetTranscript 404 或空内容返回 ok=false；其余非 2xx 与网络错误返回 error
func (c *Client) GetTranscript(ctx context.Context, videoID string) (string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+url.PathEscape(videoID), nil)
	if err != nil {
		return "", false, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", false, fmt.Errorf("transcript %s: %w", videoID, err)
	}
	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusNoContent {
		resp.Body.Close()
		return "", false, nil
	}
	if err := httpx.CheckStatus(resp); err != nil {
		return "", false, fmt.Errorf("transcript %s: %w", videoID, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", false, fmt.Errorf("transcript %s: read body: %w", videoID, err)
	}

	text := decodeTranscript(raw)
	if strings.TrimSpace(text) == "" {
		return "", false, nil
	}
	return text, true, nil
}

// decodeTranscript 支持 {"transcript": "..."} 与纯文本两种响应
func decodeTranscript(raw []byte) string {
	var body struct {
		Transcript *string `json:"transcript"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		if body.Transcript == nil {
			return ""
		}
		return *body.Transcript
	}
	return string(raw)
}
