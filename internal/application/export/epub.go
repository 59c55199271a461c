package export

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
	"text/template"
	"time"

	"yt-ebook-api/internal/domain/entity"
)

const epubMimetype = "application/epub+zip"

const containerXML = `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>
`

const stylesheet = `body { font-family: "Noto Sans JP", sans-serif; line-height: 1.8; }
h1, h2 { color: #2563eb; }
h2 { border-left: 4px solid #2563eb; padding-left: 0.5em; }
`

var epubFuncs = template.FuncMap{"x": xmlEscape}

var opfTemplate = template.Must(template.New("opf").Funcs(epubFuncs).Parse(`<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0" unique-identifier="uid" xml:lang="{{x .Lang}}">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:identifier id="uid">urn:yt-ebook:{{x .ID}}</dc:identifier>
    <dc:title>{{x .Title}}</dc:title>
    <dc:creator>{{x .Creator}}</dc:creator>
    <dc:language>{{x .Lang}}</dc:language>
    <dc:date>{{.Date}}</dc:date>
    <meta property="dcterms:modified">{{.Modified}}</meta>
  </metadata>
  <manifest>
    <item id="nav" href="nav.xhtml" media-type="application/xhtml+xml" properties="nav"/>
    <item id="css" href="style.css" media-type="text/css"/>
{{- range .Chapters}}
    <item id="{{.ID}}" href="{{.Href}}" media-type="application/xhtml+xml"/>
{{- end}}
  </manifest>
  <spine>
{{- range .Chapters}}
    <itemref idref="{{.ID}}"/>
{{- end}}
  </spine>
</package>
`))

var navTemplate = template.Must(template.New("nav").Funcs(epubFuncs).Parse(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE html>
<html xmlns="http://www.w3.org/1999/xhtml" xmlns:epub="http://www.idpf.org/2007/ops" xml:lang="{{x .Lang}}" lang="{{x .Lang}}">
<head>
  <meta charset="UTF-8"/>
  <title>{{x .Title}}</title>
  <link rel="stylesheet" type="text/css" href="style.css"/>
</head>
<body>
  <nav epub:type="toc" id="toc">
    <h1>目次</h1>
    <ol>
{{- range .Chapters}}
      <li><a href="{{.Href}}">{{x .Title}}</a></li>
{{- end}}
    </ol>
  </nav>
</body>
</html>
`))

var chapterTemplate = template.Must(template.New("chapter").Funcs(epubFuncs).Parse(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE html>
<html xmlns="http://www.w3.org/1999/xhtml" xml:lang="{{x .Lang}}" lang="{{x .Lang}}">
<head>
  <meta charset="UTF-8"/>
  <title>{{x .Title}}</title>
  <link rel="stylesheet" type="text/css" href="style.css"/>
</head>
<body>
  <section id="{{.ID}}">
    <h1>{{x .Title}}</h1>
{{.Body}}
  </section>
</body>
</html>
`))

type epubChapter struct {
	ID    string
	Href  string
	Title string
	Lang  string
	Body  string
}

type epubFile struct {
	name string
	tmpl *template.Template
	data any
	raw  string
}

type epubPackage struct {
	ID       string
	Title    string
	Creator  string
	Lang     string
	Date     string
	Modified string
	Chapters []epubChapter
}

// epub 生成 EPUB 3 包；mimetype 必须是第一个条目且不压缩
func (e *Exporter) epub(p *entity.Project) ([]byte, error) {
	at := e.generatedAt(p).UTC()
	pkg := epubPackage{
		ID:       p.ID,
		Title:    p.Title,
		Creator:  generatorName,
		Lang:     languageOf(p),
		Date:     at.Format(time.DateOnly),
		Modified: at.Format("2006-01-02T15:04:05Z"),
		Chapters: make([]epubChapter, 0, len(p.Chapters)),
	}
	for i, ch := range p.Chapters {
		var body bytes.Buffer
		if err := e.xhtml.Convert([]byte(chapterContent(ch)), &body); err != nil {
			return nil, fmt.Errorf("render chapter %d: %w", ch.ID, err)
		}
		pkg.Chapters = append(pkg.Chapters, epubChapter{
			ID:    fmt.Sprintf("chapter-%d", i+1),
			Href:  fmt.Sprintf("chapter-%d.xhtml", i+1),
			Title: ch.Title,
			Lang:  pkg.Lang,
			Body:  body.String(),
		})
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	mw, err := zw.CreateHeader(&zip.FileHeader{Name: "mimetype", Method: zip.Store})
	if err != nil {
		return nil, fmt.Errorf("write mimetype: %w", err)
	}
	if _, err := mw.Write([]byte(epubMimetype)); err != nil {
		return nil, fmt.Errorf("write mimetype: %w", err)
	}

	files := []epubFile{
		{name: "META-INF/container.xml", raw: containerXML},
		{name: "OEBPS/content.opf", tmpl: opfTemplate, data: pkg},
		{name: "OEBPS/nav.xhtml", tmpl: navTemplate, data: pkg},
		{name: "OEBPS/style.css", raw: stylesheet},
	}
	for _, ch := range pkg.Chapters {
		files = append(files, epubFile{name: "OEBPS/" + ch.Href, tmpl: chapterTemplate, data: ch})
	}

	for _, f := range files {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: f.name, Method: zip.Deflate, Modified: at})
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", f.name, err)
		}
		if f.tmpl == nil {
			_, err = w.Write([]byte(f.raw))
		} else {
			err = f.tmpl.Execute(w, f.data)
		}
		if err != nil {
			return nil, fmt.Errorf("write %s: %w", f.name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close epub: %w", err)
	}
	return buf.Bytes(), nil
}

func xmlEscape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
