package repository

import (
	"context"

	"github.com/agrihelp/agrihelp-api/internal/domain/entity"
)

// BlogRepository persists blogs.
type BlogRepository interface {
	Create(ctx context.Context, b *entity.Blog) error
	GetByID(ctx context.Context, id string) (*entity.Blog, error)
	List(ctx context.Context, f entity.BlogFilter) ([]entity.Blog, error)
	Search(ctx context.Context, q string, limit int) ([]entity.Blog, error)
	Update(ctx context.Context, b *entity.Blog) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}
