package export

import (
	"archive/zip"
	"bytes"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yt-ebook-api/internal/domain/entity"
	apperrors "yt-ebook-api/pkg/errors"
)

func sampleProject() *entity.Project {
	generated := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	p := &entity.Project{
		ID:          "1705312200000-a1b2c3",
		Title:       "Go & 並行処理",
		Settings:    entity.DefaultSettings(),
		Status:      entity.ProjectStatusCompleted,
		GeneratedAt: &generated,
		Videos: []entity.VideoRef{
			{ID: "abc123", Title: "Goroutine入門", Channel: "Tech", Duration: "12:34"},
		},
		Chapters: []entity.Chapter{
			{ID: 1, Title: "序章", Content: "## 概要\n\n本文です。"},
			{ID: 2, Title: "詳細", Content: "<p><strong>太字</strong>の段落</p>"},
			{ID: 3, Title: "空の章"},
		},
	}
	p.RecalculateTotals()
	p.TotalChars = 10000
	return p
}

func unzip(t *testing.T, body []byte) (*zip.Reader, map[string]string) {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	require.NoError(t, err)
	files := make(map[string]string, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		files[f.Name] = string(data)
	}
	return zr, files
}

func TestExportEPUB(t *testing.T) {
	p := sampleProject()
	res, err := New().Export(p, "epub")
	require.NoError(t, err)
	assert.Equal(t, "application/epub+zip", res.ContentType)
	assert.Equal(t, "Go & 並行処理.epub", res.Filename)

	zr, files := unzip(t, res.Body)
	require.NotEmpty(t, zr.File)
	assert.Equal(t, "mimetype", zr.File[0].Name)
	assert.Equal(t, zip.Store, zr.File[0].Method)
	assert.Equal(t, "application/epub+zip", files["mimetype"])

	assert.Contains(t, files["META-INF/container.xml"], `full-path="OEBPS/content.opf"`)

	opf := files["OEBPS/content.opf"]
	assert.Equal(t, len(p.Chapters), strings.Count(opf, "<itemref "))
	assert.Contains(t, opf, "<dc:title>Go &amp; 並行処理</dc:title>")
	assert.Contains(t, opf, "<dc:language>ja</dc:language>")
	assert.Contains(t, opf, "<dc:date>2024-01-15</dc:date>")
	assert.Contains(t, opf, `properties="nav"`)

	nav := files["OEBPS/nav.xhtml"]
	assert.Contains(t, nav, `<a href="chapter-2.xhtml">詳細</a>`)

	first := files["OEBPS/chapter-1.xhtml"]
	assert.Contains(t, first, "<h1>序章</h1>")
	assert.Contains(t, first, "<h2>概要</h2>")
	assert.NotContains(t, files["OEBPS/chapter-2.xhtml"], "<strong>")
	assert.Contains(t, files["OEBPS/chapter-3.xhtml"], emptyChapterNotice)
}

func TestExportMarkdown(t *testing.T) {
	res, err := New().Export(sampleProject(), "MD")
	require.NoError(t, err)
	assert.Equal(t, "text/markdown; charset=utf-8", res.ContentType)
	assert.Equal(t, "Go & 並行処理.md", res.Filename)

	md := string(res.Body)
	assert.True(t, strings.HasPrefix(md, "# Go & 並行処理\n"))
	assert.Contains(t, md, "> 生成日: 2024/1/15")
	assert.Contains(t, md, "> 文字数: 10,000文字")
	assert.Contains(t, md, "1. [序章](#chapter-1)")
	assert.Contains(t, md, "3. [空の章](#chapter-3)")
	assert.Contains(t, md, "## 概要\n\n本文です。")
	assert.Contains(t, md, "**太字**")
	assert.NotContains(t, md, "<strong>")
	assert.Contains(t, md, emptyChapterNotice)
	assert.Contains(t, md, "- [Goroutine入門](https://www.youtube.com/watch?v=abc123)")
	assert.Contains(t, md, "  - チャンネル: Tech")
}

func TestExportHTML(t *testing.T) {
	res, err := New().Export(sampleProject(), "html")
	require.NoError(t, err)
	assert.Equal(t, "text/html; charset=utf-8", res.ContentType)

	doc := string(res.Body)
	assert.Contains(t, doc, "<title>Go &amp; 並行処理</title>")
	assert.Contains(t, doc, `<div class="chapter" id="chapter-2">`)
	assert.Contains(t, doc, "<strong>太字</strong>")
	assert.Contains(t, doc, "文字数: 10,000文字")
	assert.Contains(t, doc, `href="https://www.youtube.com/watch?v=abc123"`)
	assert.Equal(t, 3, strings.Count(doc, `<div class="chapter"`))
}

func TestExportUsesClockWhenNotGenerated(t *testing.T) {
	p := sampleProject()
	p.GeneratedAt = nil
	e := New(WithClock(func() time.Time { return time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC) }))

	res, err := e.Export(p, "markdown")
	require.NoError(t, err)
	assert.Contains(t, string(res.Body), "生成日: 2025/3/9")
}

func TestUnsupportedFormat(t *testing.T) {
	_, err := New().Export(sampleProject(), "pdf")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidationFailed))
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "Go_入門_ 基礎_.epub", Filename(&entity.Project{Title: "Go/入門: 基礎?"}, "epub"))
	assert.Equal(t, "p-1.html", Filename(&entity.Project{ID: "p-1", Title: "  "}, "html"))
}
