package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pawmates/adoption-service/internal/adapter/nats"
	"github.com/pawmates/adoption-service/internal/domain/entity"
	"github.com/pawmates/adoption-service/internal/platform/logger"
	"github.com/pawmates/adoption-service/internal/repository"
)

// PhotoStorage uploads a pet photo and returns its public URL.
type PhotoStorage interface {
	Upload(ctx context.Context, originalFileName string, data []byte) (string, error)
}

type CreateListingInput struct {
	Name        string
	Species     string
	Breed       string
	Age         int
	Gender      string
	Description string
	Location    string
	AdoptionFee float64
	ImageURLs   []string
}

type UpdateListingInput struct {
	Name        *string
	Breed       *string
	Age         *int
	Gender      *string
	Description *string
	Location    *string
	AdoptionFee *float64
	ImageURLs   []string
}

type ListingService interface {
	Create(ctx context.Context, ownerID string, input CreateListingInput) (*entity.Listing, error)
	GetByID(ctx context.Context, listingID string) (*entity.Listing, error)
	List(ctx context.Context, params repository.ListListingsParams) (*repository.ListListingsResult, error)
	Update(ctx context.Context, listingID, actingOwnerID string, input UpdateListingInput) (*entity.Listing, error)
	Delete(ctx context.Context, listingID, actingOwnerID string) error
	UploadPhoto(ctx context.Context, fileName string, data []byte) (string, error)
	Species(ctx context.Context) ([]string, error)
}

type listingService struct {
	repo      repository.ListingRepository
	cache     repository.ListingCache
	photos    PhotoStorage
	publisher nats.MessagePublisher
	log       logger.Logger
	cacheTTL  time.Duration
	opTimeout time.Duration
}

func NewListingService(
	repo repository.ListingRepository,
	cache repository.ListingCache,
	photos PhotoStorage,
	publisher nats.MessagePublisher,
	log logger.Logger,
	cacheTTL time.Duration,
	opTimeout time.Duration,
) ListingService {
	return &listingService{
		repo:      repo,
		cache:     cache,
		photos:    photos,
		publisher: publisher,
		log:       log,
		cacheTTL:  cacheTTL,
		opTimeout: opTimeout,
	}
}

func (s *listingService) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.opTimeout)
}

func (s *listingService) Create(ctx context.Context, ownerID string, input CreateListingInput) (*entity.Listing, error) {
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	listing, err := entity.NewListing(ownerID, input.Name, input.Species, input.ImageURLs, input.AdoptionFee)
	if err != nil {
		return nil, err
	}
	listing.Breed = input.Breed
	listing.Age = input.Age
	listing.Gender = input.Gender
	listing.Description = input.Description
	listing.Location = input.Location

	id, err := s.repo.Create(ctx, listing)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	listing.ID = id

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, nats.SubjectListingCreated, map[string]string{
			"listing_id": id,
			"owner_id":   ownerID,
			"species":    listing.Species,
		}); err != nil {
			s.log.Warnf("Failed to publish %s event: %v", nats.SubjectListingCreated, err)
		}
	}

	s.log.Infof("Listing %s created by owner %s", id, ownerID)
	return listing, nil
}

func (s *listingService) GetByID(ctx context.Context, listingID string) (*entity.Listing, error) {
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, listingID)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, repository.ErrCacheMiss) {
			s.log.Warnf("Cache lookup for listing %s failed: %v", listingID, err)
		}
	}

	listing, err := s.repo.GetByID(ctx, listingID)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, listing, s.cacheTTL); err != nil {
			s.log.Warnf("Failed to cache listing %s: %v", listingID, err)
		}
	}
	return listing, nil
}

func (s *listingService) List(ctx context.Context, params repository.ListListingsParams) (*repository.ListListingsResult, error) {
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 || params.PageSize > 100 {
		params.PageSize = 20
	}

	result, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return result, nil
}

// touchesFrozenFields reports whether the update reaches beyond the free-text
// description. Once a pet is adopted everything else on the listing is frozen.
func touchesFrozenFields(in UpdateListingInput) bool {
	return in.Name != nil || in.Breed != nil || in.Age != nil || in.Gender != nil ||
		in.Location != nil || in.AdoptionFee != nil || in.ImageURLs != nil
}

func (s *listingService) Update(ctx context.Context, listingID, actingOwnerID string, input UpdateListingInput) (*entity.Listing, error) {
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	listing, err := s.repo.GetByID(ctx, listingID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	if listing.OwnerID != actingOwnerID {
		return nil, fmt.Errorf("%w: only the listing owner can update it", entity.ErrForbidden)
	}
	if !listing.IsAvailable() && touchesFrozenFields(input) {
		return nil, fmt.Errorf("%w: adopted listings only accept description edits", entity.ErrInvalidState)
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, fmt.Errorf("%w: pet name cannot be empty", entity.ErrValidation)
		}
		listing.Name = *input.Name
	}
	if input.Breed != nil {
		listing.Breed = *input.Breed
	}
	if input.Age != nil {
		listing.Age = *input.Age
	}
	if input.Gender != nil {
		listing.Gender = *input.Gender
	}
	if input.Description != nil {
		listing.Description = *input.Description
	}
	if input.Location != nil {
		listing.Location = *input.Location
	}
	if input.AdoptionFee != nil {
		if *input.AdoptionFee < 0 {
			return nil, fmt.Errorf("%w: adoption fee cannot be negative", entity.ErrValidation)
		}
		listing.AdoptionFee = *input.AdoptionFee
	}
	if input.ImageURLs != nil {
		if len(input.ImageURLs) == 0 {
			return nil, fmt.Errorf("%w: a listing needs at least one image", entity.ErrValidation)
		}
		listing.ImageURLs = input.ImageURLs
	}
	listing.UpdatedAt = time.Now().UTC()

	if err := s.repo.ReplaceVersioned(ctx, listing, listing.Version); err != nil {
		return nil, mapStoreErr(err)
	}

	s.invalidate(ctx, listingID)
	return listing, nil
}

func (s *listingService) Delete(ctx context.Context, listingID, actingOwnerID string) error {
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	listing, err := s.repo.GetByID(ctx, listingID)
	if err != nil {
		return mapStoreErr(err)
	}
	if listing.OwnerID != actingOwnerID {
		return fmt.Errorf("%w: only the listing owner can delete it", entity.ErrForbidden)
	}

	if err := s.repo.Delete(ctx, listingID); err != nil {
		return mapStoreErr(err)
	}

	s.invalidate(ctx, listingID)
	s.log.Infof("Listing %s deleted by owner %s", listingID, actingOwnerID)
	return nil
}

func (s *listingService) UploadPhoto(ctx context.Context, fileName string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty photo upload", entity.ErrValidation)
	}
	url, err := s.photos.Upload(ctx, fileName, data)
	if err != nil {
		return "", fmt.Errorf("photo upload: %w", err)
	}
	return url, nil
}

func (s *listingService) Species(ctx context.Context) ([]string, error) {
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	species, err := s.repo.DistinctSpecies(ctx)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return species, nil
}

func (s *listingService) invalidate(ctx context.Context, listingID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, listingID); err != nil {
		s.log.Warnf("Failed to invalidate cache for listing %s: %v", listingID, err)
	}
}
