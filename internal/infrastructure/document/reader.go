// Package document loads SOW files (markdown, text or PDF) for review.
package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"sow-reviewer/internal/application/port/output"
	"sow-reviewer/internal/domain/entity"
)

// TruncationMarker ends a document that was cut to the token budget.
const TruncationMarker = "\n\n[... document truncated to fit the model context ...]"

var _ output.DocumentReader = (*Reader)(nil)

type Reader struct {
	maxTokens int
	logger    output.LoggerPort
}

// NewReader returns a reader that truncates documents above maxTokens; zero disables truncation.
func NewReader(maxTokens int, logger output.LoggerPort) *Reader {
	return &Reader{maxTokens: maxTokens, logger: logger}
}

func (r *Reader) Read(ctx context.Context, path string) (*entity.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", entity.ErrDocumentNotFound, path)
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	format := FormatOf(path)

	var content string
	if format == entity.FormatPDF {
		content, err = readPDF(path)
	} else {
		var data []byte
		data, err = os.ReadFile(path)
		content = string(data)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	content = strings.TrimSpace(strings.ReplaceAll(content, "\r\n", "\n"))
	if content == "" {
		return nil, fmt.Errorf("%w: %s", entity.ErrEmptyDocument, path)
	}

	doc := &entity.Document{
		Path:    path,
		Format:  format,
		Content: content,
		Tokens:  CountTokens(content),
	}

	if truncated, cut := TruncateTokens(content, r.maxTokens); cut {
		r.logger.Warn("Document truncated",
			"path", path,
			"tokens", doc.Tokens,
			"maxTokens", r.maxTokens,
		)
		doc.Content = truncated + TruncationMarker
		doc.Truncated = true
	}

	r.logger.Info("Document loaded",
		"path", path,
		"format", format,
		"chars", len(doc.Content),
		"tokens", doc.Tokens,
	)

	return doc, nil
}

// FormatOf derives the document format from the file extension.
func FormatOf(path string) entity.DocumentFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return entity.FormatPDF
	case ".md", ".markdown":
		return entity.FormatMarkdown
	default:
		return entity.FormatText
	}
}

func readPDF(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := pageText(page)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		buf.WriteString(text)
		buf.WriteString("\n")
	}

	if strings.TrimSpace(buf.String()) != "" {
		return buf.String(), nil
	}

	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract text: %w", err)
	}
	data, err := io.ReadAll(plain)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// pageText groups the page's text runs into lines by their baseline.
func pageText(page pdf.Page) (string, error) {
	rows, err := page.GetTextByRow()
	if err != nil {
		return "", err
	}

	var lines []string
	for _, row := range rows {
		var sb strings.Builder
		for _, word := range row.Content {
			sb.WriteString(word.S)
		}
		if line := strings.TrimRight(sb.String(), " "); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n"), nil
}
