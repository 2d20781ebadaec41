package repository

import (
	"context"

	"github.com/pawmates/adoption-service/internal/domain/entity"
)

type ListPostsParams struct {
	AuthorID string
	LovedBy  string
	Page     int
	PageSize int
}

type PostRepository interface {
	Create(ctx context.Context, post *entity.Post) (string, error)
	GetByID(ctx context.Context, postID string) (*entity.Post, error)
	List(ctx context.Context, params ListPostsParams) ([]entity.Post, int64, error)
	Update(ctx context.Context, post *entity.Post) error
	Delete(ctx context.Context, postID string) error
}
