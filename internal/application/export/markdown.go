package export

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"yt-ebook-api/internal/domain/entity"
)

var embeddedHTML = regexp.MustCompile(`<[a-zA-Z][a-zA-Z0-9]*(\s[^<>]*)?/?>`)

func (e *Exporter) markdown(p *entity.Project) ([]byte, error) {
	date, chars := summary(p, e.generatedAt(p))

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", p.Title)
	b.WriteString("> YouTube動画から生成された電子書籍\n>\n")
	fmt.Fprintf(&b, "> 生成日: %s\n> 文字数: %s\n\n", date, chars)

	b.WriteString("## 目次\n\n")
	for i, ch := range p.Chapters {
		fmt.Fprintf(&b, "%d. [%s](#chapter-%d)\n", i+1, ch.Title, i+1)
	}
	b.WriteString("\n---\n")

	for i, ch := range p.Chapters {
		body, err := e.plainMarkdown(chapterContent(ch))
		if err != nil {
			return nil, fmt.Errorf("convert chapter %d: %w", ch.ID, err)
		}
		fmt.Fprintf(&b, "\n<a id=\"chapter-%d\"></a>\n\n## %s\n\n%s\n\n---\n", i+1, ch.Title, strings.TrimSpace(body))
	}

	if len(p.Videos) > 0 {
		b.WriteString("\n## 参考動画\n\n")
		for _, v := range p.Videos {
			fmt.Fprintf(&b, "- [%s](%s)\n", videoTitle(v), v.WatchURL())
			if v.Channel != "" {
				fmt.Fprintf(&b, "  - チャンネル: %s\n", v.Channel)
			}
			if v.Duration != "" {
				fmt.Fprintf(&b, "  - 長さ: %s\n", v.Duration)
			}
		}
		b.WriteString("\n---\n")
	}

	fmt.Fprintf(&b, "\n*この電子書籍は %s で生成されました。*\n", generatorName)
	return []byte(b.String()), nil
}

// plainMarkdown 章节中混入的 HTML 片段转换为 Markdown，纯 Markdown 原样返回
func (e *Exporter) plainMarkdown(content string) (string, error) {
	if !embeddedHTML.MatchString(content) {
		return content, nil
	}
	var rendered bytes.Buffer
	if err := e.html.Convert([]byte(content), &rendered); err != nil {
		return "", err
	}
	return htmltomarkdown.ConvertString(rendered.String())
}

func videoTitle(v entity.VideoRef) string {
	if v.Title != "" {
		return v.Title
	}
	return v.ID
}
