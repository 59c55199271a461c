// Package export 将项目导出为 EPUB、Markdown 或 HTML
package export

import (
	"strings"
	"time"
	"unicode"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"yt-ebook-api/internal/domain/entity"
	apperrors "yt-ebook-api/pkg/errors"
)

// Format 导出格式
type Format string

const (
	FormatEPUB     Format = "epub"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

const (
	generatorName      = "YouTube→EPUB Generator"
	emptyChapterNotice = "この章の内容はまだ作成されていません。"
)

// FormatInfo 导出格式目录项
type FormatInfo struct {
	ID          Format `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Extension   string `json:"extension"`
	ContentType string `json:"contentType"`
}

var formats = []FormatInfo{
	{ID: FormatEPUB, Name: "EPUB", Description: "Kindle、Apple Books、Google Play Books対応", Extension: "epub", ContentType: "application/epub+zip"},
	{ID: FormatMarkdown, Name: "Markdown", Description: "編集者向け、GitHub、Notion対応", Extension: "md", ContentType: "text/markdown; charset=utf-8"},
	{ID: FormatHTML, Name: "HTML", Description: "ウェブブラウザで閲覧可能", Extension: "html", ContentType: "text/html; charset=utf-8"},
}

// Formats 支持的导出格式
func Formats() []FormatInfo {
	out := make([]FormatInfo, len(formats))
	copy(out, formats)
	return out
}

// ParseFormat 解析格式名，大小写不敏感，md 视为 markdown
func ParseFormat(s string) (FormatInfo, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "md" {
		name = string(FormatMarkdown)
	}
	for _, f := range formats {
		if string(f.ID) == name {
			return f, nil
		}
	}
	return FormatInfo{}, apperrors.Validation("unsupported export format %q", s)
}

// Result 导出结果
type Result struct {
	Filename    string
	ContentType string
	Body        []byte
}

// Option 导出器选项
type Option func(*Exporter)

// WithClock 替换时钟
func WithClock(now func() time.Time) Option {
	return func(e *Exporter) { e.now = now }
}

// Exporter 项目导出器，无状态，可并发使用
type Exporter struct {
	xhtml goldmark.Markdown
	html  goldmark.Markdown
	now   func() time.Time
}

// New 创建导出器
func New(opts ...Option) *Exporter {
	e := &Exporter{
		// EPUB 要求合法 XHTML，原始 HTML 片段不输出
		xhtml: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithXHTML(), html.WithHardWraps()),
		),
		html: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
			goldmark.WithRendererOptions(html.WithUnsafe(), html.WithHardWraps()),
		),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Export 按格式导出项目
func (e *Exporter) Export(p *entity.Project, format string) (*Result, error) {
	info, err := ParseFormat(format)
	if err != nil {
		return nil, err
	}

	var body []byte
	switch info.ID {
	case FormatEPUB:
		body, err = e.epub(p)
	case FormatMarkdown:
		body, err = e.markdown(p)
	case FormatHTML:
		body, err = e.htmlDocument(p)
	}
	if err != nil {
		return nil, err
	}
	return &Result{
		Filename:    Filename(p, info.Extension),
		ContentType: info.ContentType,
		Body:        body,
	}, nil
}

// Filename 由标题生成下载文件名，去除路径分隔符等非法字符
func Filename(p *entity.Project, ext string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsControl(r):
			return -1
		case strings.ContainsRune(`/\:*?"<>|`, r):
			return '_'
		}
		return r
	}, strings.TrimSpace(p.Title))
	name = strings.Trim(name, ". ")
	if name == "" {
		name = p.ID
	}
	return name + "." + ext
}

func (e *Exporter) generatedAt(p *entity.Project) time.Time {
	if p.GeneratedAt != nil {
		return *p.GeneratedAt
	}
	return e.now()
}

func languageOf(p *entity.Project) string {
	if p.Settings.Language == "" {
		return entity.DefaultLanguage
	}
	return p.Settings.Language
}

// summary 书首的生成说明：生成日与总字数
func summary(p *entity.Project, at time.Time) (date, chars string) {
	tag, err := language.Parse(languageOf(p))
	if err != nil {
		tag = language.Japanese
	}
	return at.Format("2006/1/2"), message.NewPrinter(tag).Sprintf("%d文字", p.TotalChars)
}

func chapterContent(ch entity.Chapter) string {
	if strings.TrimSpace(ch.Content) == "" {
		return emptyChapterNotice
	}
	return ch.Content
}
