package entity

import "time"

// BookContent 书籍生成结果
type BookContent struct {
	Chapters   []Chapter    `json:"chapters"`
	TotalChars int          `json:"totalChars"`
	Metadata   BookMetadata `json:"metadata"`
}

// BookMetadata 生成元数据
type BookMetadata struct {
	GeneratedAt  time.Time `json:"generatedAt"`
	SourceVideos int       `json:"sourceVideos"`
	Tone         Tone      `json:"tone"`
	Language     string    `json:"language"`
	Provider     string    `json:"provider,omitempty"`
}

// Normalize 规范化章节并按内容重算总字数
func (b *BookContent) Normalize() {
	b.Chapters = NormalizeChapters(b.Chapters)
	total := 0
	for _, ch := range b.Chapters {
		total += ch.CharCount
	}
	b.TotalChars = total
}

// Segment 追加生成的内容片段
type Segment struct {
	Content     string    `json:"content"`
	CharCount   int       `json:"charCount"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// AssistantContext 助手对话上下文
type AssistantContext struct {
	ProjectID     string   `json:"projectId,omitempty"`
	ProjectTitle  string   `json:"projectTitle,omitempty"`
	ChapterTitles []string `json:"chapterTitles,omitempty"`
	TotalChars    int      `json:"totalChars,omitempty"`
}

// AssistantReply 助手回复
type AssistantReply struct {
	Response  string    `json:"response"`
	Timestamp time.Time `json:"timestamp"`
	Provider  string    `json:"provider,omitempty"`
}
