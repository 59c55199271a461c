// Package model 定义生成式工作流的输入输出结构
package model

// VideoDigest 提供给模型的视频摘要
type VideoDigest struct {
	Title       string
	Channel     string
	Description string
	Transcript  string
}

// BookContentInput 整书生成输入
type BookContentInput struct {
	Videos        []VideoDigest
	TargetLength  int
	Language      string
	Tone          string
	ChapterTitles []string

	Provider string
	Model    string
}

// BookContentOutput 模型返回的整书 JSON
type BookContentOutput struct {
	Chapters []ChapterDraft `json:"chapters"`
}

// ChapterDraft 模型返回的单章
type ChapterDraft struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// EnhanceSpec 增强项说明
type EnhanceSpec struct {
	ID          string
	Name        string
	Description string
}

// EnhanceChapterInput 章节增强输入
type EnhanceChapterInput struct {
	ChapterTitle string
	Content      string
	Enhancements []EnhanceSpec

	Provider string
	Model    string
}

// SegmentInput 追加片段输入
type SegmentInput struct {
	ChapterTitle    string
	ExistingContent string
	TargetChars     int

	Provider string
	Model    string
}

// ContentOutput 只含正文的模型 JSON（增强、片段共用）
type ContentOutput struct {
	Content string `json:"content"`
}

// AssistantInput 编辑助手输入
type AssistantInput struct {
	Message       string
	ProjectTitle  string
	ChapterTitles []string
	TotalChars    int

	Provider string
	Model    string
}
