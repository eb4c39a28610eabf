package output

import (
	"context"

	"sow-reviewer/internal/domain/entity"
)

type DocumentReader interface {
	Read(ctx context.Context, path string) (*entity.Document, error)
}

type ReportWriter interface {
	Write(ctx context.Context, report *entity.Report, path string) error
}

// ActiveDocument holds the SOW under review for the document-aware tools.
type ActiveDocument interface {
	Set(doc *entity.Document)
	Get() (*entity.Document, bool)
}
