package input

import (
	"context"

	"sow-reviewer/internal/domain/entity"
)

type ReviewExecutor interface {
	Review(ctx context.Context, doc *entity.Document) (*entity.Report, error)
}
