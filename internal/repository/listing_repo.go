package repository

import (
	"context"

	"github.com/pawmates/adoption-service/internal/domain/entity"
)

type ListListingsParams struct {
	Species   string
	OwnerID   string
	Status    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

type ListListingsResult struct {
	Listings   []entity.Listing
	TotalCount int64
}

// ListingRepository owns the listing aggregate, including its embedded
// adoption requests. ReplaceVersioned is the single-writer path: it persists
// the whole aggregate only if the stored version still matches
// expectedVersion, and bumps the version on success.
type ListingRepository interface {
	Create(ctx context.Context, listing *entity.Listing) (string, error)
	GetByID(ctx context.Context, listingID string) (*entity.Listing, error)
	List(ctx context.Context, params ListListingsParams) (*ListListingsResult, error)
	DistinctSpecies(ctx context.Context) ([]string, error)
	ReplaceVersioned(ctx context.Context, listing *entity.Listing, expectedVersion int) error
	Delete(ctx context.Context, listingID string) error
}
