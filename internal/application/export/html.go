package export

import (
	"bytes"
	"fmt"
	"html/template"

	"yt-ebook-api/internal/domain/entity"
)

var documentTemplate = template.Must(template.New("document").Parse(`<!DOCTYPE html>
<html lang="{{.Lang}}">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<style>
body { font-family: 'Noto Sans JP', sans-serif; line-height: 1.8; max-width: 800px; margin: 0 auto; padding: 2rem; color: #333; }
.header { text-align: center; margin-bottom: 3rem; padding-bottom: 2rem; border-bottom: 2px solid #eee; }
.chapter { margin-bottom: 3rem; }
.chapter > h2 { color: #2563eb; border-left: 4px solid #2563eb; padding-left: 1rem; margin-bottom: 1rem; }
.toc { background: #f8fafc; padding: 2rem; border-radius: 8px; margin-bottom: 3rem; }
.toc ul { list-style: none; padding: 0; }
.toc li { margin-bottom: 0.5rem; }
.toc a { color: #2563eb; text-decoration: none; }
.toc a:hover { text-decoration: underline; }
.footer { margin-top: 3rem; padding-top: 2rem; border-top: 1px solid #eee; text-align: center; color: #666; }
</style>
</head>
<body>
<div class="header">
<h1>{{.Title}}</h1>
<p>YouTube動画から生成された電子書籍</p>
<p>生成日: {{.Date}} | 文字数: {{.Chars}}</p>
</div>
<div class="toc">
<h2>目次</h2>
<ul>
{{- range .Chapters}}
<li><a href="#{{.Anchor}}">{{.Number}}. {{.Title}}</a></li>
{{- end}}
</ul>
</div>
{{- range .Chapters}}
<div class="chapter" id="{{.Anchor}}">
<h2>{{.Title}}</h2>
{{.Body}}
</div>
{{- end}}
{{- if .Videos}}
<div class="videos">
<h2>参考動画</h2>
<ul>
{{- range .Videos}}
<li><a href="{{.URL}}">{{.Title}}</a>{{if .Channel}} / {{.Channel}}{{end}}{{if .Duration}} ({{.Duration}}){{end}}</li>
{{- end}}
</ul>
</div>
{{- end}}
<div class="footer">
<p>この電子書籍は {{.Generator}} で生成されました。</p>
</div>
</body>
</html>
`))

type htmlChapter struct {
	Number int
	Anchor string
	Title  string
	Body   template.HTML
}

type htmlVideo struct {
	URL      string
	Title    string
	Channel  string
	Duration string
}

type htmlDocument struct {
	Lang      string
	Title     string
	Date      string
	Chars     string
	Generator string
	Chapters  []htmlChapter
	Videos    []htmlVideo
}

func (e *Exporter) htmlDocument(p *entity.Project) ([]byte, error) {
	date, chars := summary(p, e.generatedAt(p))
	doc := htmlDocument{
		Lang:      languageOf(p),
		Title:     p.Title,
		Date:      date,
		Chars:     chars,
		Generator: generatorName,
	}
	for i, ch := range p.Chapters {
		var body bytes.Buffer
		if err := e.html.Convert([]byte(chapterContent(ch)), &body); err != nil {
			return nil, fmt.Errorf("render chapter %d: %w", ch.ID, err)
		}
		doc.Chapters = append(doc.Chapters, htmlChapter{
			Number: i + 1,
			Anchor: fmt.Sprintf("chapter-%d", i+1),
			Title:  ch.Title,
			Body:   template.HTML(body.String()),
		})
	}
	for _, v := range p.Videos {
		doc.Videos = append(doc.Videos, htmlVideo{
			URL:      v.WatchURL(),
			Title:    videoTitle(v),
			Channel:  v.Channel,
			Duration: v.Duration,
		})
	}

	var out bytes.Buffer
	if err := documentTemplate.Execute(&out, doc); err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}
	return out.Bytes(), nil
}
