package entity

import (
	"path/filepath"
	"strings"
)

type DocumentFormat string

const (
	FormatMarkdown DocumentFormat = "markdown"
	FormatPDF      DocumentFormat = "pdf"
	FormatText     DocumentFormat = "text"
)

type Document struct {
	Path      string
	Format    DocumentFormat
	Content   string
	Tokens    int
	Truncated bool
}

// Name is the document file name without directory and extension.
func (d Document) Name() string {
	base := filepath.Base(d.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
