package extractor

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"

	"docqa/internal/models"
)

// Pages extracts per-page raw text from a local document. The extraction
// itself is treated as a black box: downstream stages only see models.Page.
func Pages(filePath string) ([]models.Page, error) {
	if _, err := os.Stat(filePath); err != nil {
		return nil, models.WrapError(models.ErrFileNotFound, fmt.Sprintf("stat %s", filePath), err)
	}

	sourceName := filepath.Base(filePath)
	ext := strings.ToLower(filepath.Ext(filePath))
	switch ext {
	case ".pdf":
		return pdfPages(filePath, sourceName)
	case ".docx":
		return docxPages(filePath, sourceName)
	case ".md":
		return markdownPages(filePath, sourceName)
	case ".txt":
		return textPages(filePath, sourceName)
	default:
		return nil, models.WrapError(models.ErrValidation, fmt.Sprintf("unsupported file format %q", ext), nil)
	}
}

func pdfPages(filePath, sourceName string) ([]models.Page, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, models.WrapError(models.ErrFileNotFound, fmt.Sprintf("open %s", filePath), err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("read pdf %s: %w", filePath, err)
	}

	var pages []models.Page
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("extract pdf page %d: %w", i, err)
		}
		pages = append(pages, newPage(pageText, i, sourceName))
	}
	return pages, nil
}

func docxPages(filePath, sourceName string) ([]models.Page, error) {
	r, err := docx.ReadDocxFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read docx %s: %w", filePath, err)
	}
	defer r.Close()

	content := r.Editable().GetContent()
	// DOCX has no page boundaries; paragraphs become pages so the short-page
	// filter still applies per unit.
	var pages []models.Page
	num := 0
	for _, paragraph := range strings.Split(content, "\n") {
		if strings.TrimSpace(paragraph) == "" {
			continue
		}
		num++
		pages = append(pages, newPage(paragraph, num, sourceName))
	}
	return pages, nil
}

func markdownPages(filePath, sourceName string) ([]models.Page, error) {
	src, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	doc := md.Parser().Parse(text.NewReader(src))

	var buf bytes.Buffer
	err = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Text:
			buf.Write(node.Segment.Value(src))
			buf.WriteByte(' ')
		case *ast.AutoLink:
			buf.Write(node.URL(src))
			buf.WriteByte(' ')
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk markdown %s: %w", filePath, err)
	}
	return []models.Page{newPage(buf.String(), 1, sourceName)}, nil
}

func textPages(filePath, sourceName string) ([]models.Page, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return []models.Page{newPage(string(data), 1, sourceName)}, nil
}

func newPage(pageText string, number int, sourceName string) models.Page {
	return models.Page{
		Text:       pageText,
		Number:     number,
		SourceName: sourceName,
		CharCount:  len(pageText),
	}
}
