// Package editor 章节编辑会话：防抖自动保存、派生指标与按需的片段追加和增强
package editor

import (
	"math"
	"strings"

	"yt-ebook-api/internal/domain/entity"
)

// Metrics 内容派生指标，不持久化
type Metrics struct {
	CharCount        int `json:"charCount"`
	WordCount        int `json:"wordCount"`
	ReadabilityScore int `json:"readabilityScore"`
}

// Measure 计算内容指标
// 可读性 = clamp(100 - 2 × 平均每句词数, 0, 100)，空内容为 0
func Measure(content string) Metrics {
	words := len(strings.Fields(content))
	m := Metrics{
		CharCount: entity.CharCount(content),
		WordCount: words,
	}
	if words == 0 {
		return m
	}

	sentences := 0
	for _, s := range strings.FieldsFunc(content, isSentenceEnd) {
		if strings.TrimSpace(s) != "" {
			sentences++
		}
	}
	if sentences == 0 {
		sentences = 1
	}
	avg := float64(words) / float64(sentences)
	m.ReadabilityScore = int(math.Round(math.Max(0, math.Min(100, 100-2*avg))))
	return m
}

func isSentenceEnd(r rune) bool {
	switch r {
	case '.', '!', '?', '。', '！', '？':
		return true
	}
	return false
}
