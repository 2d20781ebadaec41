package repository

import (
	"context"
	"errors"
	"time"

	"github.com/pawmates/adoption-service/internal/domain/entity"
)

var ErrCacheMiss = errors.New("cache miss")

type ListingCache interface {
	Get(ctx context.Context, listingID string) (*entity.Listing, error)
	Set(ctx context.Context, listing *entity.Listing, ttl time.Duration) error
	Delete(ctx context.Context, listingID string) error
}
