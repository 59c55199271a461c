package entity

import (
	"time"
	"unicode/utf8"
)

// Chapter 章节实体，归属于唯一的项目
type Chapter struct {
	ID                  int        `json:"id"`
	Title               string     `json:"title"`
	Content             string     `json:"content"`
	CharCount           int        `json:"charCount"`
	LastModified        *time.Time `json:"lastModified,omitempty"`
	LastEnhanced        *time.Time `json:"lastEnhanced,omitempty"`
	AppliedEnhancements []string   `json:"appliedEnhancements,omitempty"`
}

// CharCount 统计文本的 Unicode 码点数
func CharCount(s string) int {
	return utf8.RuneCountInString(s)
}

// SetContent 设置章节内容并同步字数
func (c *Chapter) SetContent(content string) {
	c.Content = content
	c.CharCount = CharCount(content)
}

// Touch 更新最后修改时间
func (c *Chapter) Touch(now time.Time) {
	c.LastModified = &now
}

// Clone 深拷贝章节
func (c Chapter) Clone() Chapter {
	cp := c
	if c.LastModified != nil {
		t := *c.LastModified
		cp.LastModified = &t
	}
	if c.LastEnhanced != nil {
		t := *c.LastEnhanced
		cp.LastEnhanced = &t
	}
	if c.AppliedEnhancements != nil {
		cp.AppliedEnhancements = append([]string(nil), c.AppliedEnhancements...)
	}
	return cp
}

// NormalizeChapters 规范化生成结果：缺失 ID 时按 1..n 编号，重复 ID 重新编号，字数按内容重算
func NormalizeChapters(chapters []Chapter) []Chapter {
	out := make([]Chapter, len(chapters))
	seen := make(map[int]bool, len(chapters))
	next := 1
	for _, ch := range chapters {
		if ch.ID >= next {
			next = ch.ID + 1
		}
	}
	for i, ch := range chapters {
		cp := ch.Clone()
		if cp.ID <= 0 || seen[cp.ID] {
			cp.ID = next
			next++
		}
		seen[cp.ID] = true
		cp.SetContent(cp.Content)
		out[i] = cp
	}
	return out
}
