package output

import (
	"context"

	"sow-reviewer/internal/domain/entity"
)

type WebFetcher interface {
	Fetch(ctx context.Context, url string) (*entity.WebPage, error)
}
