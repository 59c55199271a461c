package entity

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// VideoRef 视频引用及缓存的元数据
type VideoRef struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Channel     string     `json:"channel"`
	Duration    string     `json:"duration"`
	Thumbnail   string     `json:"thumbnail"`
	Description string     `json:"description"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
	Views       int64      `json:"views"`
	Likes       int64      `json:"likes"`
	Transcript  *string    `json:"transcript,omitempty"`
}

// HasTranscript 检查是否已附带字幕文本
func (v VideoRef) HasTranscript() bool {
	return v.Transcript != nil && *v.Transcript != ""
}

// WatchURL 视频观看地址
func (v VideoRef) WatchURL() string {
	return "https://www.youtube.com/watch?v=" + url.QueryEscape(v.ID)
}

// Clone 深拷贝视频引用
func (v VideoRef) Clone() VideoRef {
	if v.PublishedAt != nil {
		t := *v.PublishedAt
		v.PublishedAt = &t
	}
	if v.Transcript != nil {
		s := *v.Transcript
		v.Transcript = &s
	}
	return v
}

// Merge 用新获取的元数据覆盖非空字段，ID 与已有字幕保持不变
func (v VideoRef) Merge(info VideoRef) VideoRef {
	out := v.Clone()
	info = info.Clone()
	if info.Title != "" {
		out.Title = info.Title
	}
	if info.Channel != "" {
		out.Channel = info.Channel
	}
	if info.Duration != "" {
		out.Duration = info.Duration
	}
	if info.Thumbnail != "" {
		out.Thumbnail = info.Thumbnail
	}
	if info.Description != "" {
		out.Description = info.Description
	}
	if info.PublishedAt != nil {
		out.PublishedAt = info.PublishedAt
	}
	if info.Views > 0 {
		out.Views = info.Views
	}
	if info.Likes > 0 {
		out.Likes = info.Likes
	}
	if !out.HasTranscript() && info.HasTranscript() {
		out.Transcript = info.Transcript
	}
	return out
}

// DedupeVideos 按 ID 去重，保留首次出现
func DedupeVideos(videos []VideoRef) []VideoRef {
	seen := make(map[string]bool, len(videos))
	out := make([]VideoRef, 0, len(videos))
	for _, v := range videos {
		if seen[v.ID] {
			continue
		}
		seen[v.ID] = true
		out = append(out, v.Clone())
	}
	return out
}

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// ParseVideoID 从 watch/youtu.be/embed/shorts 链接或裸 ID 中解析视频 ID
func ParseVideoID(input string) (string, error) {
	s := strings.TrimSpace(input)
	if videoIDPattern.MatchString(s) {
		return s, nil
	}
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return "", fmt.Errorf("invalid video url %q: %w", input, err)
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	host = strings.TrimPrefix(host, "m.")
	path := strings.Trim(u.Path, "/")

	var candidate string
	switch host {
	case "youtu.be":
		candidate, _, _ = strings.Cut(path, "/")
	case "youtube.com", "music.youtube.com", "youtube-nocookie.com":
		switch {
		case path == "watch":
			candidate = u.Query().Get("v")
		case strings.HasPrefix(path, "embed/"), strings.HasPrefix(path, "shorts/"), strings.HasPrefix(path, "v/"), strings.HasPrefix(path, "live/"):
			_, rest, _ := strings.Cut(path, "/")
			candidate, _, _ = strings.Cut(rest, "/")
		}
	}

	if !videoIDPattern.MatchString(candidate) {
		return "", fmt.Errorf("no video id found in %q", input)
	}
	return candidate, nil
}
